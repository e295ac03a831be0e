package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every construction-time failure.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	ErrUnknownFault = errors.New("unknown fault")
)

// ConfigError reports an invalid construction argument.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Invalid returns a *ConfigError for field.
func Invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Stage operations recorded in StageError.
const (
	OpRead    = "read"
	OpProcess = "process"
	OpWrite   = "write"
	OpRun     = "run"
)

// StageError tags a failure with the stage that observed it. Batch is the
// 1-based batch number, zero when the failure is not tied to a batch.
type StageError struct {
	Stage string
	Op    string
	Batch int64
	Err   error
}

func (e *StageError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("stage %s: %s batch %d: %v", e.Stage, e.Op, e.Batch, e.Err)
	}
	return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsUpstreamFault reports whether err is a stage passing on the fault it read
// from its input. The failure was already reported where it happened.
func IsUpstreamFault(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Op == OpRead && !IsCancellation(err)
}

// PanicError wraps a value recovered from a panicking operation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
