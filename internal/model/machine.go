package model

import (
	"github.com/roach88/changeoracle/internal/record"
)

// DefaultMaxTime bounds the logical clock so the state space stays finite.
const DefaultMaxTime = 3

// Transition is one row of the transition table.
type Transition struct {
	Event Event

	// From is the label that must be active, e.g. "stack.pending".
	// Empty matches every configuration.
	From string

	Guard  record.Cond
	Action record.Action

	// Becomes switches the actor region. Only actor switch rows set it.
	Becomes Actor
}

// Machine is the protocol model: event declarations plus a transition table
// evaluated in declaration order.
type Machine struct {
	events      []EventSpec
	specs       map[Event]EventSpec
	transitions map[Event][]Transition
	initial     record.Context
	maxTime     int
}

// Option configures a Machine.
type Option func(*Machine)

// WithInitial replaces the initial Context.
func WithInitial(ctx record.Context) Option {
	return func(m *Machine) {
		m.initial = ctx
	}
}

// WithMaxTime sets the highest tick TICK_TIME may reach.
func WithMaxTime(n int) Option {
	return func(m *Machine) {
		m.maxTime = n
	}
}

// New builds the change lifecycle machine.
//
// The initial Context holds one header proposal under the cursor.
func New(opts ...Option) *Machine {
	m := &Machine{
		events:  append([]EventSpec(nil), eventSpecs...),
		specs:   make(map[Event]EventSpec, len(eventSpecs)),
		initial: record.NewContext("header-0"),
		maxTime: DefaultMaxTime,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, spec := range m.events {
		m.specs[spec.Name] = spec
	}
	m.transitions = m.table()
	return m
}

// table declares every guarded transition.
func (m *Machine) table() map[Event][]Transition {
	rows := []Transition{
		{Event: ProposePacket, Guard: always, Action: proposePacket},
		{Event: ProposeSolution, From: "stack.open", Guard: isPacket, Action: proposeSolution},
		{Event: ProposeEdit, From: "stack.enacted", Guard: isHeader, Action: proposeEdit},

		{Event: FundEth, From: "stack.open", Guard: record.And(isFundable, record.Is(patch{"fundedEth": false, "defundStarted": false})), Action: fundEth},
		{Event: FundDai, From: "stack.open", Guard: record.And(isFundable, record.Is(patch{"fundedDai": false, "defundStarted": false})), Action: fundDai},

		{Event: QaResolve, From: "stack.open.qa.judging", Guard: isJudgeable, Action: qaResolve},
		{Event: QaReject, From: "stack.open.qa.judging", Guard: isJudgeable, Action: qaReject},

		{Event: DisputeResolve, From: "stack.pending.viewing.resolved", Guard: record.And(record.Negate(disputeWindowElapsed), record.Is(patch{"disputedResolve": false})), Action: dispute("disputedResolve")},
		{Event: DisputeRejection, From: "stack.pending.viewing.rejected", Guard: record.And(record.Negate(disputeWindowElapsed), record.Is(patch{"disputedRejection": false})), Action: dispute("disputedRejection")},
		{Event: DisputeShares, From: "stack.pending.viewing.resolved", Guard: record.And(record.Negate(disputeWindowElapsed), record.Is(patch{"disputedShares": false})), Action: dispute("disputedShares")},

		{Event: SuperUphold, From: "stack.open.superQa.arbitrating", Guard: isDispute, Action: superUphold},
		{Event: SuperDismiss, From: "stack.open.superQa.arbitrating", Guard: isDispute, Action: superDismiss},

		{Event: Enact, From: "stack.pending.viewing.resolved", Guard: record.And(isHeader, isEnactable), Action: enactHeader},
		{Event: Enact, From: "stack.pending.viewing.resolved", Guard: record.And(isSolution, isEnactable), Action: enactSolution},
		{Event: Enact, From: "stack.pending.viewing.resolved", Guard: record.And(isEdit, isEnactable), Action: enactEdit},

		{Event: Claim, From: "stack.enacted.claims.solver.unclaimed", Guard: isSolution, Action: claim},
		{Event: QaClaim, From: "stack.enacted.claims.qa.unclaimed", Guard: isJudgeable, Action: qaClaim},
		{Event: Exit, From: "stack.enacted.claims.solver.claimed", Guard: isSolution, Action: exit},
		{Event: QaExit, Guard: record.GlobalIs(patch{"qaExitable": true, "qaExited": false}), Action: qaExit},

		{Event: DefundStart, From: "stack.open.funding.holding", Guard: record.Is(patch{"defundStarted": false}), Action: defundStart},
		{Event: DefundStop, From: "stack.open.funding.defunding", Guard: always, Action: defundStop},
		{Event: DefundExit, From: "stack.open.funding.defunding", Guard: defundWindowElapsed, Action: defundExit},

		{Event: TradeFunds, From: "stack.enacted.trading.funds.funded", Guard: isFundable, Action: tradeFunds},
		{Event: TradeContent, From: "stack.enacted.trading.content.enacted", Guard: record.Or(isHeader, isEdit), Action: tradeContent},
		{Event: TradeMedallion, From: "stack.enacted.trading.medallion.enacted", Guard: isSolution, Action: tradeMedallion},

		{Event: TickTime, Guard: canTick(m.maxTime), Action: tickTime},
		{Event: Next, Guard: isNotLast, Action: focusNext},
		{Event: Prev, Guard: isNotFirst, Action: focusPrev},
		{Event: FocusUplink, Guard: hasUplink, Action: focusUplink},
	}
	for _, spec := range m.events {
		if spec.Becomes != "" {
			rows = append(rows, Transition{Event: spec.Name, Guard: always, Action: stay, Becomes: spec.Becomes})
		}
	}

	out := make(map[Event][]Transition)
	for _, r := range rows {
		out[r.Event] = append(out[r.Event], r)
	}
	return out
}

func always(record.Context) bool { return true }

func stay(c record.Context) record.Context { return c }

// Initial returns the starting state.
func (m *Machine) Initial() State {
	return newState(Proposer, m.initial)
}

// Events returns every declared event in enumeration order.
func (m *Machine) Events() []EventSpec {
	return append([]EventSpec(nil), m.events...)
}

// Spec returns the declaration of e.
func (m *Machine) Spec(e Event) (EventSpec, bool) {
	spec, ok := m.specs[e]
	return spec, ok
}

// MaxTime returns the highest reachable tick.
func (m *Machine) MaxTime() int {
	return m.maxTime
}

// Resolve maps DO to the current actor's characteristic event; every other
// event maps to itself.
func (m *Machine) Resolve(s State, e Event) Event {
	return Resolve(s, e)
}

// Resolve maps DO to the characteristic event of the actor in s.
func Resolve(s State, e Event) Event {
	if e != Do {
		return e
	}
	if c, ok := Characteristic(s.Actor); ok {
		return c
	}
	return e
}

// Creates returns the type of Change e would append from s, if any.
func (m *Machine) Creates(s State, e Event) record.ChangeType {
	return Creates(s, e)
}

// Creates returns the type of Change e would append from s, if any. Only
// enacting a header creates a packet.
func Creates(s State, e Event) record.ChangeType {
	e = Resolve(s, e)
	spec, ok := specIndex[e]
	if !ok {
		return ""
	}
	if e == Enact && s.Context.Current().Type != record.Header {
		return ""
	}
	return spec.Creates
}

// Owner returns the actor that performs e from s. DO is resolved first.
// Navigation and time events have no owner.
func Owner(s State, e Event) Actor {
	return specIndex[Resolve(s, e)].Actor
}

// find returns the first row for e that applies in s.
func (m *Machine) find(s State, e Event) (Transition, bool) {
	for _, t := range m.transitions[e] {
		if t.From != "" && !s.Matches(t.From) {
			continue
		}
		if t.Becomes != "" && t.Becomes == s.Actor {
			continue
		}
		if t.Guard(s.Context) {
			return t, true
		}
	}
	return Transition{}, false
}

// Can reports whether e would be taken in s.
func (m *Machine) Can(s State, e Event) bool {
	_, ok := m.find(s, m.Resolve(s, e))
	return ok
}

// Enabled returns the events that would be taken in s, in declaration order.
func (m *Machine) Enabled(s State) []Event {
	var out []Event
	for _, spec := range m.events {
		if m.Can(s, spec.Name) {
			out = append(out, spec.Name)
		}
	}
	return out
}

// Transition takes e from s. The boolean is false when no row applies, in
// which case s is returned unchanged. Only actor switch events change the
// actor; domain events, DO included, leave it as it was.
func (m *Machine) Transition(s State, e Event) (State, bool) {
	t, ok := m.find(s, m.Resolve(s, e))
	if !ok {
		return s, false
	}
	actor := s.Actor
	if t.Becomes != "" {
		actor = t.Becomes
	}
	return newState(actor, t.Action(s.Context)), true
}

// Apply takes events in order and fails at the first one that is not taken.
func (m *Machine) Apply(s State, events ...Event) (State, error) {
	for i, e := range events {
		if _, ok := m.specs[e]; !ok {
			return s, &UnknownEventError{Event: e}
		}
		next, ok := m.Transition(s, e)
		if !ok {
			return s, &RejectedError{Event: e, Index: i, Labels: s.Labels()}
		}
		s = next
	}
	return s, nil
}
