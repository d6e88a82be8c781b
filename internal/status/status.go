package status

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound  = errors.New("ticket: ticket not found")
	ErrDuplicateTicket = errors.New("ticket: channel already has a ticket")
	ErrTicketDeleted   = errors.New("ticket: ticket is deleted")
)

// ExternalError marks a failed chat-platform call. Op names the step that
// failed so callers can tell which side effect did or did not happen.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("platform: %s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// PersistenceError marks a failed store call. Duplicate-key violations wrap
// ErrDuplicateTicket so errors.Is can distinguish them from other backend
// failures.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// External wraps err as a platform failure for the named step.
func External(op string, err error) error {
	return &ExternalError{Op: op, Err: err}
}

// Persistence wraps err as a store failure for the named step.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
