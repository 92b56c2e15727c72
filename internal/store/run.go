package store

import (
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/replay"
)

// Run is one stored replay of a path.
type Run struct {
	// ID and Seq are assigned by WriteRun.
	ID  string
	Seq int64

	Scenario    string
	PathID      string
	Description string
	Events      []model.Event
	Pass        bool

	// Failure is the rendered first failed expectation, empty on pass.
	Failure string

	// Error is set when the collaborator could not be driven.
	Error string

	Steps []replay.TraceEvent
}

// FromResult builds a Run from a replay result.
func FromResult(scenario, description string, r replay.Result) Run {
	run := Run{
		Scenario:    scenario,
		PathID:      r.PathID,
		Description: description,
		Events:      r.Events,
		Pass:        r.Pass,
		Steps:       r.Trace,
	}
	if r.Failure != nil {
		run.Failure = r.Failure.Kind + ": expected " + r.Failure.Expected + ", got " + r.Failure.Actual
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}
