// Package errs defines the error kinds surfaced by file manager operations.
//
// Every operation returns an *Error carrying a Kind and a message that is
// safe to show to the operator. The underlying cause (which may contain
// absolute host paths) is kept for logging only and reachable via errors.Unwrap.
package errs

import (
	"errors"
	"net/http"
)

// Kind classifies an operation failure.
type Kind int

const (
	Unknown Kind = iota
	AuthenticationRequired
	InvalidCredentials
	NotFound
	AlreadyExists
	NotADirectory
	NotAFile
	TooLarge
	UnsupportedFormat
	ArchiveCorrupt
	IOFailure
	ValidationFailure
	TransferError
	PathEscape
)

var kindNames = map[Kind]string{
	Unknown:                "unknown",
	AuthenticationRequired: "authentication_required",
	InvalidCredentials:     "invalid_credentials",
	NotFound:               "not_found",
	AlreadyExists:          "already_exists",
	NotADirectory:          "not_a_directory",
	NotAFile:               "not_a_file",
	TooLarge:               "too_large",
	UnsupportedFormat:      "unsupported_format",
	ArchiveCorrupt:         "archive_corrupt",
	IOFailure:              "io_failure",
	ValidationFailure:      "validation_failure",
	TransferError:          "transfer_error",
	PathEscape:             "path_escape",
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// HTTPStatus maps a kind to the status code of the error envelope.
func (k Kind) HTTPStatus() int {
	switch k {
	case AuthenticationRequired, InvalidCredentials:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case TooLarge:
		return http.StatusRequestEntityTooLarge
	case NotADirectory, NotAFile, UnsupportedFormat, ArchiveCorrupt, ValidationFailure, TransferError:
		return http.StatusBadRequest
	case PathEscape:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with an operator-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error that records cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the Kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the operator-facing message of err. Errors that were not
// classified collapse to a generic message so causes never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}
