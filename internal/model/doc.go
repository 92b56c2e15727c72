// Package model defines the change lifecycle as a hierarchical, partly
// parallel state machine over a shared record.Context.
//
// # Regions
//
// Three top-level regions are active at once:
//
//   - actor: which role is acting (proposer, funder, solver, qa, superQa,
//     trader, editor, disputer, service). Only the BE_<ACTOR> switch events
//     change it. DO performs the current actor's characteristic event.
//   - stack: the lifecycle of the Change under the cursor. open holds the
//     parallel funding, qa and superQa sub-regions; once QA has judged, the
//     region advances to pending (viewing or dispute), then to enacted with
//     its parallel trading and claims sub-regions. Dispute Changes settle
//     into settled.upheld or settled.dismissed.
//   - view: informational projections (type, stack position, logical time).
//     The view region never gates a transition.
//
// The stack and view configurations are functions of the Context: every
// eventless ("always") transition is folded into the derivation, so a State
// is fully described by its actor and its Context. Labels are dot paths such
// as "stack.open.funding.holding".
//
// # Transitions
//
// The transition table is keyed by (event, source configuration). For one
// event the first row whose source is active and whose guard holds is taken;
// when no row applies the event is simply not taken. Guards and actions are
// pure functions of the Context and never read wall-clock time or randomness.
// Time advances only through TICK_TIME.
package model
