package replay

import (
	"context"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// Operation is one request sent to the collaborator.
type Operation struct {
	Event model.Event

	// Target is the id of the Change the operation acts on: the model's
	// cursor before the step. Ids are creation order, shared by model and
	// collaborator.
	Target record.Ref
}

// Emitted is one event reported by the collaborator.
type Emitted struct {
	Name string
	ID   record.Ref
}

// Outcome is the collaborator's answer to an Operation.
type Outcome struct {
	Emitted []Emitted

	// Reason is the revert reason. Empty on success.
	Reason string
}

// Reverted reports whether the operation failed.
func (o Outcome) Reverted() bool {
	return o.Reason != ""
}

// Collaborator is the system under test.
//
// Do returns an error only when the operation could not be carried out at
// all; business failures are reported as a reverted Outcome.
type Collaborator interface {
	Do(ctx context.Context, op Operation) (Outcome, error)
}

// CollaboratorFunc adapts a function to Collaborator.
type CollaboratorFunc func(ctx context.Context, op Operation) (Outcome, error)

// Do implements Collaborator.
func (f CollaboratorFunc) Do(ctx context.Context, op Operation) (Outcome, error) {
	return f(ctx, op)
}

// TraceEvent is one entry of a replay trace.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"` // operation, outcome, local or revert

	Event   model.Event `json:"event,omitempty"`
	Target  record.Ref  `json:"target"`
	Emitted []Emitted   `json:"emitted,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// Trace event types.
const (
	TraceOperation = "operation"
	TraceOutcome   = "outcome"
	TraceLocal     = "local"
	TraceRevert    = "revert"
)

// Result is the outcome of replaying one path.
type Result struct {
	PathID string
	Events []model.Event

	// Pass is true when every step and hook met its expectation.
	Pass bool

	// Failure is the first failed expectation.
	Failure *AssertionError

	// Err is set when the collaborator could not be driven at all.
	Err error

	Trace []TraceEvent
}
