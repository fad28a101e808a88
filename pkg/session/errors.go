package session

import (
	"errors"
	"fmt"
)

const (
	// NotConfiguredMessage is the user-visible message set when a save is
	// requested without a save handler.
	NotConfiguredMessage = "Save not implemented"
	// DefaultRejectMessage replaces an empty rejection message.
	DefaultRejectMessage = "Error"
	// TimeoutMessage is the rejection message used when WithSaveTimeout
	// expires before the handler resolves.
	TimeoutMessage = "Save timed out"
)

var (
	// ErrSaveNotConfigured is returned by RequestSave when no save handler is
	// configured. The session enters the error phase with NotConfiguredMessage.
	ErrSaveNotConfigured = errors.New("session: save handler not configured")
	// ErrSaveRejected matches every *SaveRejectedError.
	ErrSaveRejected = errors.New("session: save rejected")
	// ErrSaveInProgress is returned when a save is requested while another
	// attempt is unresolved. The request has no effect.
	ErrSaveInProgress = errors.New("session: save already in progress")
	// ErrNothingToSave is returned when a save is requested on a clean session.
	ErrNothingToSave = errors.New("session: nothing to save")
	// ErrAlreadyResolved is returned when a save context is resolved twice.
	ErrAlreadyResolved = errors.New("session: save context already resolved")
	// ErrAbandoned is returned when resolving an attempt the session no longer
	// waits for, because it was unmounted.
	ErrAbandoned = errors.New("session: save attempt abandoned")
	// ErrInvalidOutcome is returned when resolving with OutcomePending.
	ErrInvalidOutcome = errors.New("session: invalid save outcome")
)

// SaveRejectedError carries the message (and optional per-field messages) a
// save handler rejected with.
type SaveRejectedError struct {
	Message     string
	FieldErrors map[string][]string
}

func (e *SaveRejectedError) Error() string {
	return fmt.Sprintf("session: save rejected: %s", e.Message)
}

func (e *SaveRejectedError) Unwrap() error {
	return ErrSaveRejected
}
