package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/metrics"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/pathgen"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/testutil"
)

// Hook is a caller check run while a path is replayed.
type Hook func(*StepContext) error

// Hooks are keyed by what triggers them.
type Hooks struct {
	// States fire once when the model enters a state matching the label,
	// including the initial state.
	States map[string]Hook

	// Events fire once after each step taking the event.
	Events map[model.Event]Hook
}

// Runner replays paths against collaborators.
type Runner struct {
	hooks   Hooks
	logger  *slog.Logger
	metrics *metrics.Metrics
	limit   int
}

// Option configures a Runner.
type Option func(*Runner)

// WithHooks sets the per-state and per-event hooks.
func WithHooks(h Hooks) Option {
	return func(r *Runner) {
		r.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records replay metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithConcurrency bounds how many paths RunAll replays at once.
// Zero or less means no bound.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		r.limit = n
	}
}

// New returns a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run is the state of one path replay.
type run struct {
	*Runner
	collab Collaborator
	clock  *testutil.DeterministicClock
	result *Result
	next   int
}

// Run replays p against c.
//
// The returned error is non-nil only when c could not be driven; failed
// expectations are reported in Result.Failure.
func (r *Runner) Run(ctx context.Context, p pathgen.Path, c Collaborator) (*Result, error) {
	rn := &run{
		Runner: r,
		collab: c,
		clock:  testutil.NewDeterministicClock(),
		result: &Result{PathID: p.ID, Events: p.Events(), Pass: true, Trace: []TraceEvent{}},
	}

	initial := p.Final
	if len(p.Steps) > 0 {
		initial = p.Steps[0].From
	}
	err := rn.enter(ctx, -1, pathgen.Step{From: initial, To: initial}, Outcome{}, true)
	if err == nil {
		err = p.Replay(ctx, func(ctx context.Context, s pathgen.Step) error {
			return rn.step(ctx, s)
		})
	}

	var ae *AssertionError
	switch {
	case errors.As(err, &ae):
		ae.Trace = rn.result.Trace
		rn.result.Pass = false
		rn.result.Failure = ae
		err = nil
	case err != nil:
		rn.result.Pass = false
		rn.result.Err = err
	}

	r.metrics.RecordPath(rn.result.Pass)
	r.logger.Debug("path replayed",
		"path", canon.Short(p.ID),
		"steps", p.Len(),
		"pass", rn.result.Pass,
	)
	return rn.result, err
}

func (rn *run) trace(ev TraceEvent) {
	ev.Seq = rn.clock.Next()
	rn.result.Trace = append(rn.result.Trace, ev)
}

// step issues one path step and checks the collaborator's answer.
func (rn *run) step(ctx context.Context, s pathgen.Step) error {
	i := rn.next
	rn.next++
	event := model.Resolve(s.From, s.Event)
	spec, _ := model.SpecOf(event)

	if spec.Local {
		rn.trace(TraceEvent{Type: TraceLocal, Event: event, Target: s.To.Context.Cursor})
		return rn.enter(ctx, i, s, Outcome{}, false)
	}

	op := Operation{Event: event, Target: s.From.Context.Cursor}
	rn.trace(TraceEvent{Type: TraceOperation, Event: event, Target: op.Target})
	out, err := rn.collab.Do(ctx, op)
	if err != nil {
		rn.metrics.RecordStep("error")
		return err
	}
	rn.trace(TraceEvent{Type: TraceOutcome, Emitted: out.Emitted, Reason: out.Reason, Target: op.Target})

	if out.Reverted() {
		rn.metrics.RecordStep("reverted")
		return &AssertionError{
			Kind:     KindUnexpectedRevert,
			Step:     i,
			Event:    event,
			Expected: fmt.Sprintf("%s emitted", spec.Emits),
			Actual:   fmt.Sprintf("reverted: %s", out.Reason),
		}
	}
	want := Emitted{Name: spec.Emits, ID: expectedID(s, event, spec)}
	if len(out.Emitted) == 0 || out.Emitted[0] != want {
		rn.metrics.RecordStep("mismatch")
		return &AssertionError{
			Kind:     KindEmittedMismatch,
			Step:     i,
			Event:    event,
			Expected: fmt.Sprintf("%s(%d)", want.Name, want.ID),
			Actual:   fmt.Sprintf("%v", out.Emitted),
		}
	}
	rn.metrics.RecordStep("ok")
	return rn.enter(ctx, i, s, out, false)
}

// enter runs the hooks for step s: event hooks first, then state hooks for
// every label that became active. Event hooks are keyed by the event taken,
// so a DO step fires the hook of the event it resolved to.
func (rn *run) enter(ctx context.Context, i int, s pathgen.Step, out Outcome, initial bool) error {
	event := model.Resolve(s.From, s.Event)
	sc := &StepContext{Ctx: ctx, Index: i, Step: s, Event: event, State: s.To, Outcome: out, run: rn}

	if !initial {
		if h, ok := rn.hooks.Events[event]; ok {
			if err := rn.call(h, sc, event); err != nil {
				return err
			}
		}
	}

	labels := make([]string, 0, len(rn.hooks.States))
	for l := range rn.hooks.States {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		if !s.To.Matches(l) || (!initial && s.From.Matches(l)) {
			continue
		}
		if err := rn.call(rn.hooks.States[l], sc, event); err != nil {
			return err
		}
	}
	return nil
}

func (rn *run) call(h Hook, sc *StepContext, event model.Event) error {
	err := h(sc)
	if err == nil {
		return nil
	}
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae
	}
	return &AssertionError{
		Kind:     KindHook,
		Step:     sc.Index,
		Event:    event,
		Expected: "hook to pass",
		Actual:   err.Error(),
	}
}

// expectedID is the id the first emitted event must carry: the new Change
// for events that append one, none for TICK_TIME, otherwise the target.
func expectedID(s pathgen.Step, event model.Event, spec model.EventSpec) record.Ref {
	switch {
	case event == model.TickTime:
		return record.NoRef
	case spec.Creates != "" && event != model.Enact:
		return record.Ref(s.From.Context.Len())
	}
	return s.From.Context.Cursor
}

// RunAll replays every path against its own collaborator from factory.
// Paths run concurrently up to the configured limit; results are in path
// order. A path that fails does not stop the others. The returned error
// joins the errors of paths whose collaborator could not be driven.
func (r *Runner) RunAll(ctx context.Context, paths []pathgen.Path, factory func() Collaborator) ([]*Result, error) {
	results := make([]*Result, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			results[i], errs[i] = r.Run(ctx, p, factory())
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		return results, errors.Join(errs...)
	}
	return results, nil
}
