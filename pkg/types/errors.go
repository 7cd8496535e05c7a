package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these, so callers
// can branch with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrTransport            = errors.New("transport failure")
	ErrUnsupportedAggregate = errors.New("unsupported aggregate function")
	ErrFileNotFound         = errors.New("file not found")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// Error is the one error shape surfaced by client operations. StatusCode
// and Details are set only when the backend produced a response.
type Error struct {
	Kind       error           `json:"-"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
