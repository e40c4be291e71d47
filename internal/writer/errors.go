package writer

import (
	"errors"
	"fmt"

	"github.com/cmmoran/beandefgen/pkg/model"
)

var (
	// ErrIllegalState marks an operation invoked in a phase that forbids it.
	ErrIllegalState = errors.New("illegal writer state")
	// ErrNotFinalized is returned when persisting a writer that was never finalized.
	ErrNotFinalized = errors.New("definition not finalized")
	// ErrSink marks a failure reported by the output sink.
	ErrSink = errors.New("sink failure")
	// ErrInvalidInput is the model package's sentinel, re-exported for callers.
	ErrInvalidInput = model.ErrInvalidInput
)

// StateError reports which operation was rejected and the phase it hit.
type StateError struct {
	Op     string
	Phase  Phase
	Reason string
}

func (e *StateError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s while %s", ErrIllegalState, e.Op, e.Phase)
	}
	return fmt.Sprintf("%s: %s while %s: %s", ErrIllegalState, e.Op, e.Phase, e.Reason)
}

func (e *StateError) Unwrap() error { return ErrIllegalState }

// SinkError wraps a sink failure with the unit being written.
type SinkError struct {
	Unit string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s: writing %s: %v", ErrSink, e.Unit, e.Err)
}

func (e *SinkError) Is(target error) bool { return target == ErrSink }

func (e *SinkError) Unwrap() error { return e.Err }
