package http

import "github.com/GriffinCanCode/filemanager/internal/providers/filesystem"

// Envelope is the uniform response of every JSON action.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListResponse answers list.
type ListResponse struct {
	Success bool               `json:"success"`
	Items   []filesystem.Entry `json:"items"`
	Current string             `json:"current"`
}

// ReadResponse answers read.
type ReadResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	MIME    string `json:"mime"`
}

// DeleteResponse answers delete. Remaining counts reserved entries, and the
// directories holding them, left in place by a successful delete.
type DeleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
}

// MoveResponse answers move.
type MoveResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Moved      int    `json:"moved"`
	Skipped    int    `json:"skipped"`
	FirstError string `json:"first_error,omitempty"`
}

// ArchiveResponse answers compress and extract.
type ArchiveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Skipped int    `json:"skipped,omitempty"`
}

func success(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

func failure(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
