package domain

import (
	"errors"
	"fmt"
)

// ErrDigestNotFound is returned when no digest was saved for a day.
var ErrDigestNotFound = errors.New("digest not found")

// SourceError reports that one source was unreachable or malformed.
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ClassificationError reports that one candidate could not be scored.
type ClassificationError struct {
	URL string
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.URL, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// PersistenceError reports that the store was unavailable. Appends are
// idempotent, so the operation may be retried.
type PersistenceError struct {
	Op  string
	Day DayKey
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Day, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SynthesisError reports that digest generation failed.
type SynthesisError struct {
	Day DayKey
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize digest %s: %v", e.Day, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ConfigError reports malformed source or interest input.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsConfig reports whether err carries a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
