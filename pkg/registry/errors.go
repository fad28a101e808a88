package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFieldType is returned when a field names a type identifier
	// that has no registered handler.
	ErrUnknownFieldType = errors.New("registry: unknown field type")
	// ErrDuplicateFieldType is returned when the reject policy is active and
	// a type identifier is registered twice.
	ErrDuplicateFieldType = errors.New("registry: field type already registered")
	// ErrRegistryFrozen is returned when registering after the registry has
	// been handed to a form tree.
	ErrRegistryFrozen = errors.New("registry: registry is frozen")
)

// UnknownFieldTypeError carries the identifier that failed to resolve.
type UnknownFieldTypeError struct {
	Type string
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("registry: unknown field type %q", e.Type)
}

func (e *UnknownFieldTypeError) Unwrap() error {
	return ErrUnknownFieldType
}
