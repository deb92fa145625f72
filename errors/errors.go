// Package errors defines the error taxonomy shared across the service.
// The transport layer maps these onto HTTP status codes; nothing below it
// knows about HTTP.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrPostingClosed = errors.New("posting is not allowed at this hour")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrEmptyWords    = errors.New("no blocked words have been found")
)

// ValidationError reports a caller mistake (empty or oversized content,
// missing fields, out-of-range hours). Never retried, never a store fault.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError anywhere in
// its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ModerationError rejects content that matched the blocklist. It is kept
// distinct from ValidationError so the transport can surface a dedicated
// signal with a user-facing explanation.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return e.Reason
}

func NewModeration(reason string) error {
	return &ModerationError{Reason: reason}
}

func IsModeration(err error) bool {
	var me *ModerationError
	return errors.As(err, &me)
}

// StoreError wraps a failure of the key-value backend. The core never
// retries these; they surface immediately to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStore(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
