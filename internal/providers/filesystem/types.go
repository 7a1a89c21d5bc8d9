package filesystem

import (
	"os"
	"time"
)

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// Entry is one row of a directory listing.
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     EntryType `json:"type"`
	Size     int64     `json:"size"`
	Modified int64     `json:"modified"`
	Readable bool      `json:"readable"`
	Writable bool      `json:"writable"`
}

// Content is a previewed file.
type Content struct {
	Data []byte
	MIME string
}

// Download is an open regular file ready to stream.
type Download struct {
	File    *os.File
	Name    string
	Size    int64
	ModTime time.Time
}

// Close releases the underlying file.
func (d *Download) Close() error {
	return d.File.Close()
}

// DeleteReport counts what a delete removed and what survived it.
type DeleteReport struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// MoveResult summarises a batch move.
type MoveResult struct {
	Moved      int
	Skipped    int
	FirstError string
}

// ExtractResult describes an unpacked archive.
type ExtractResult struct {
	Directory string
	Files     int
	Dirs      int
	Skipped   int
}
