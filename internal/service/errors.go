package service

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-facing message; Kind decides the HTTP status.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func invalid(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}
