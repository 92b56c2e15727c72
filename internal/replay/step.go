package replay

import (
	"context"
	"fmt"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/pathgen"
	"github.com/roach88/changeoracle/internal/record"
)

// StepContext is what a Hook sees.
type StepContext struct {
	Ctx context.Context

	// Index is the step that triggered the hook, -1 for the initial state.
	Index int
	Step  pathgen.Step

	// Event is the event taken, with DO resolved. Empty for the initial
	// state.
	Event model.Event

	// State is the model state after the step. Hooks phrase expectations
	// against its Context, e.g. the id of the Change just created.
	State model.State

	// Outcome is the collaborator's answer to the step, empty for local
	// steps and the initial state.
	Outcome Outcome

	run *run
}

// Cursor returns the id of the Change under the model's cursor.
func (sc *StepContext) Cursor() record.Ref {
	return sc.State.Context.Cursor
}

// ExpectRevert sends e against target and fails unless the collaborator
// reverts with exactly reason.
func (sc *StepContext) ExpectRevert(e model.Event, target record.Ref, reason string) error {
	op := Operation{Event: e, Target: target}
	sc.run.trace(TraceEvent{Type: TraceRevert, Event: e, Target: target})
	out, err := sc.run.collab.Do(sc.Ctx, op)
	if err != nil {
		return err
	}
	sc.run.trace(TraceEvent{Type: TraceOutcome, Emitted: out.Emitted, Reason: out.Reason, Target: target})

	if out.Reason != reason {
		actual := fmt.Sprintf("reverted: %s", out.Reason)
		if !out.Reverted() {
			actual = fmt.Sprintf("emitted %v", out.Emitted)
		}
		sc.run.metrics.RecordStep("mismatch")
		return &AssertionError{
			Kind:     KindExpectedRevert,
			Step:     sc.Index,
			Event:    e,
			Expected: fmt.Sprintf("reverted: %s", reason),
			Actual:   actual,
		}
	}
	sc.run.metrics.RecordStep("reverted")
	return nil
}

// Expect fails with a hook assertion when ok is false.
func (sc *StepContext) Expect(ok bool, expected, actual string) error {
	if ok {
		return nil
	}
	return &AssertionError{
		Kind:     KindHook,
		Step:     sc.Index,
		Event:    sc.Event,
		Expected: expected,
		Actual:   actual,
	}
}
