package pathgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// Step is one transition of a Path.
type Step struct {
	From  model.State
	Event model.Event
	To    model.State
}

// Path is a shortest event sequence from the initial state to a state
// satisfying the generation target. Paths are immutable once returned.
type Path struct {
	// ID identifies the event sequence and final state.
	ID string

	Steps []Step

	// Final is the state the path reaches. For an empty path it is the
	// initial state.
	Final model.State
}

// Events returns the event names in order.
func (p Path) Events() []model.Event {
	out := make([]model.Event, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Event
	}
	return out
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.Steps)
}

// Replay feeds the steps to fn in order, waiting for each call to return
// before issuing the next. It stops at the first error.
func (p Path) Replay(ctx context.Context, fn func(context.Context, Step) error) error {
	for i, s := range p.Steps {
		if err := fn(ctx, s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Event, err)
		}
	}
	return nil
}

func pathID(events []model.Event, final model.State) string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	id, err := canon.PathID(names, final.ID())
	if err != nil {
		panic(err)
	}
	return id
}

// FromEvents builds the path that takes events in order from the initial
// state. It fails at the first event the model does not take.
func FromEvents(m *model.Machine, events ...model.Event) (p Path, err error) {
	defer record.Recover(&err)

	s := m.Initial()
	steps := make([]Step, 0, len(events))
	for i, e := range events {
		next, err := m.Apply(s, e)
		var re *model.RejectedError
		if errors.As(err, &re) {
			re.Index = i
		}
		if err != nil {
			return Path{}, err
		}
		steps = append(steps, Step{From: s, Event: e, To: next})
		s = next
	}
	p = Path{Steps: steps, Final: s}
	p.ID = pathID(p.Events(), s)
	return p, nil
}
