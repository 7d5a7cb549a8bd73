package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the queue service matches one of these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIntegrity         = errors.New("integrity violation")
	ErrStore             = errors.New("store error")
)

var (
	ErrEventNotFound  = fmt.Errorf("event %w", ErrNotFound)
	ErrTicketNotFound = fmt.Errorf("ticket %w", ErrNotFound)
	ErrCounterMissing = fmt.Errorf("%w: event has no counter", ErrIntegrity)
)

// ValidationError reports bad caller input
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransitionError reports a status change the state machine forbids
type TransitionError struct {
	From TicketStatus
	To   TicketStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change ticket status from %s to %s", e.From, e.To)
}

// Is matches ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StoreError wraps a failure of the underlying store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrStore
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// IsKnown reports whether err already belongs to one of the error kinds
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrIntegrity) ||
		errors.Is(err, ErrStore)
}

// WrapStoreError classifies err as a StoreError unless it already has a kind
func WrapStoreError(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
