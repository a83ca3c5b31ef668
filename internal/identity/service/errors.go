package service

import "errors"

// Error kinds. Every failure a service returns matches exactly one of these
// with errors.Is, the HTTP layer maps them to status codes.
var (
	ErrBadRequest   = errors.New("bad_request")
	ErrConflict     = errors.New("conflict")
	ErrAuthFailed   = errors.New("auth_failed")
	ErrRateLimited  = errors.New("rate_limited")
	ErrNotFound     = errors.New("not_found")
	ErrTokenExpired = errors.New("token_expired")
	ErrTokenInvalid = errors.New("token_invalid")
	ErrInternal     = errors.New("internal")
)

// Error is a failure with a message that is safe to show to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Message returns the client facing message for err. Errors that carry no
// message of their own fall back to a generic text for their kind.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	switch {
	case errors.Is(err, ErrBadRequest):
		return "Bad request"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	case errors.Is(err, ErrAuthFailed):
		return "Authentication failed"
	case errors.Is(err, ErrRateLimited):
		return "Too many requests"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, ErrTokenInvalid):
		return "Invalid token"
	default:
		return "Internal server error"
	}
}
