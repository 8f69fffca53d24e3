package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a stage failure. Every kind is non-retrying; the
// orchestrator logs the failure and degrades or skips.
type ErrorKind string

const (
	// ErrConfig means a required credential or setting is missing.
	ErrConfig ErrorKind = "config"
	// ErrTransport means the network call itself failed or timed out.
	ErrTransport ErrorKind = "transport"
	// ErrProvider means the provider answered with a non-success status.
	ErrProvider ErrorKind = "provider"
	// ErrParse means the provider payload was malformed or incomplete.
	ErrParse ErrorKind = "parse"
	// ErrTimeout means a bounded polling loop exhausted its attempts.
	ErrTimeout ErrorKind = "timeout"
)

// StageError is a typed failure from one pipeline stage.
type StageError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageFailure wraps err as a typed stage failure.
func StageFailure(stage string, kind ErrorKind, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// Stagef builds a typed stage failure from a format string.
func Stagef(stage string, kind ErrorKind, format string, args ...any) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err is (or wraps) a StageError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
