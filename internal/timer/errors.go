package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation's precondition does
	// not hold. Engine state is left unchanged.
	ErrInvalidTransition = errors.New("invalid timer transition")
	// ErrInvalidSettings is returned when a settings update is rejected.
	ErrInvalidSettings = errors.New("invalid timer settings")
	// ErrInvalidMode is returned for an unknown mode name.
	ErrInvalidMode = errors.New("invalid timer mode")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("timer engine closed")
)

// SettingsError names the offending field of a rejected settings update.
type SettingsError struct {
	Field string
	Value int
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("%s must be between 1 and 1440 minutes, got %d", e.Field, e.Value)
}

func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

func transitionError(op string, status Status) error {
	return fmt.Errorf("%s: %w (status %s)", op, ErrInvalidTransition, status)
}
