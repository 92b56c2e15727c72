// Package filter provides the search-time pruning predicates consulted by the
// path generator before a transition guard is evaluated.
//
// Filters only bound the search. They never change which transitions the
// model allows, so dropping a filter can only add paths.
package filter

import (
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// Filter reports whether the edge (s, e) may be expanded.
type Filter func(s model.State, e model.Event) bool

// Target is a predicate over reached states.
type Target func(s model.State) bool

// None lets every edge through.
func None(model.State, model.Event) bool { return true }

// SkipEvents rejects the named events. DO is rejected when it is named or
// when the event it resolves to is.
func SkipEvents(names ...model.Event) Filter {
	skip := eventSet(names)
	return func(s model.State, e model.Event) bool {
		return !skip[e] && !skip[model.Resolve(s, e)]
	}
}

// WithEvents only admits the named events. DO is admitted when it is named
// or when the event it resolves to is.
func WithEvents(names ...model.Event) Filter {
	keep := eventSet(names)
	return func(s model.State, e model.Event) bool {
		return keep[e] || keep[model.Resolve(s, e)]
	}
}

// SkipActors keeps the search out of the named actor sub-states: it rejects
// switching to them and events they perform. DO counts as the event it
// resolves to.
func SkipActors(actors ...model.Actor) Filter {
	skip := actorSet(actors)
	return func(s model.State, e model.Event) bool {
		return !skip[model.Owner(s, e)]
	}
}

// WithActors only admits switching to the named actors and events they
// perform. Events that no actor owns (navigation, TICK_TIME) are always
// admitted.
func WithActors(actors ...model.Actor) Filter {
	keep := actorSet(actors)
	return func(s model.State, e model.Event) bool {
		owner := model.Owner(s, e)
		return owner == "" || keep[owner]
	}
}

// Max rejects any event after which more than limit Changes of the Context
// match pattern, whether the event creates such a Change or patches one into
// matching. Events m would not take are left to the guards. The pattern is
// validated immediately.
func Max(m *model.Machine, limit int, pattern record.Patch) Filter {
	count := record.Count(pattern)
	return func(s model.State, e model.Event) bool {
		next, ok := m.Transition(s, e)
		if !ok {
			return true
		}
		return count(next.Context) <= limit
	}
}

// And holds when every filter holds, evaluated in order.
func And(filters ...Filter) Filter {
	return func(s model.State, e model.Event) bool {
		for _, f := range filters {
			if !f(s, e) {
				return false
			}
		}
		return true
	}
}

// Or holds when some filter holds, evaluated in order.
func Or(filters ...Filter) Filter {
	return func(s model.State, e model.Event) bool {
		for _, f := range filters {
			if f(s, e) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not(f Filter) Filter {
	return func(s model.State, e model.Event) bool {
		return !f(s, e)
	}
}

func eventSet(names []model.Event) map[model.Event]bool {
	out := make(map[model.Event]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func actorSet(actors []model.Actor) map[model.Actor]bool {
	out := make(map[model.Actor]bool, len(actors))
	for _, a := range actors {
		out[a] = true
	}
	return out
}
