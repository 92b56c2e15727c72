package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/changeoracle/internal/model"
)

// Assertion kinds.
const (
	KindUnexpectedRevert = "unexpected_revert"
	KindEmittedMismatch  = "emitted_mismatch"
	KindExpectedRevert   = "expected_revert"
	KindHook             = "hook"
)

// AssertionError reports a collaborator that disagrees with the model.
type AssertionError struct {
	Kind string

	// Step is the index of the path step, -1 for the initial state.
	Step  int
	Event model.Event

	Expected string
	Actual   string

	// Trace is the replay trace up to the failure.
	Trace []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s at step %d (%s)\n", e.Kind, e.Step, e.Event)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		switch ev.Type {
		case TraceOperation, TraceRevert, TraceLocal:
			fmt.Fprintf(&buf, "  [%d] %s %s -> %d\n", ev.Seq, ev.Type, ev.Event, ev.Target)
		case TraceOutcome:
			if ev.Reason != "" {
				fmt.Fprintf(&buf, "  [%d] reverted: %s\n", ev.Seq, ev.Reason)
			} else {
				fmt.Fprintf(&buf, "  [%d] emitted %v\n", ev.Seq, ev.Emitted)
			}
		}
	}
	return buf.String()
}

// IsAssertionError returns true if err wraps an *AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
