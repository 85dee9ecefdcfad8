package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes
var (
	// ErrInvalidConfig indicates a missing or invalid grid, criteria or table.
	// Always fatal, and always raised before any list is written.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrMalformed indicates a feed record or identifier could not be decoded
	ErrMalformed = errors.New("malformed record")

	// ErrConflict indicates two feed records share an identity but differ in payload
	ErrConflict = errors.New("duplicate key conflict")

	// ErrFrozen indicates a write to a processing list that was already emitted
	ErrFrozen = errors.New("processing list is frozen")

	// ErrLocked indicates the output directory is held by another run
	ErrLocked = errors.New("output directory locked")
)

// ConfigError describes a fatal configuration problem.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
