package model

import "github.com/roach88/changeoracle/internal/record"

// Actor is a sub-state of the actor region.
type Actor string

// Actors.
const (
	Proposer Actor = "proposer"
	Funder   Actor = "funder"
	Solver   Actor = "solver"
	QA       Actor = "qa"
	SuperQA  Actor = "superQa"
	Trader   Actor = "trader"
	Editor   Actor = "editor"
	Disputer Actor = "disputer"
	Service  Actor = "service"
)

// Actors lists every actor in declaration order.
var Actors = []Actor{Proposer, Funder, Solver, QA, SuperQA, Trader, Editor, Disputer, Service}

// Event names a machine input.
type Event string

// Events.
const (
	ProposePacket    Event = "PROPOSE_PACKET"
	ProposeSolution  Event = "PROPOSE_SOLUTION"
	ProposeEdit      Event = "PROPOSE_EDIT"
	FundEth          Event = "FUND_ETH"
	FundDai          Event = "FUND_DAI"
	QaResolve        Event = "QA_RESOLVE"
	QaReject         Event = "QA_REJECT"
	DisputeResolve   Event = "DISPUTE_RESOLVE"
	DisputeRejection Event = "DISPUTE_REJECTION"
	DisputeShares    Event = "DISPUTE_SHARES"
	SuperUphold      Event = "SUPER_UPHOLD"
	SuperDismiss     Event = "SUPER_DISMISS"
	Enact            Event = "ENACT"
	Claim            Event = "CLAIM"
	QaClaim          Event = "QA_CLAIM"
	Exit             Event = "EXIT"
	QaExit           Event = "QA_EXIT"
	DefundStart      Event = "DEFUND_START"
	DefundStop       Event = "DEFUND_STOP"
	DefundExit       Event = "DEFUND_EXIT"
	TradeFunds       Event = "TRADE_FUNDS"
	TradeContent     Event = "TRADE_CONTENT"
	TradeMedallion   Event = "TRADE_MEDALLION"
	TickTime         Event = "TICK_TIME"
	Next             Event = "NEXT"
	Prev             Event = "PREV"
	FocusUplink      Event = "FOCUS_UPLINK"
	Do               Event = "DO"

	BeProposer Event = "BE_PROPOSER"
	BeFunder   Event = "BE_FUNDER"
	BeSolver   Event = "BE_SOLVER"
	BeQA       Event = "BE_QA"
	BeSuperQA  Event = "BE_SUPER_QA"
	BeTrader   Event = "BE_TRADER"
	BeEditor   Event = "BE_EDITOR"
	BeDisputer Event = "BE_DISPUTER"
	BeService  Event = "BE_SERVICE"
)

// EventSpec describes how an event relates to actors, the record and the
// collaborator.
type EventSpec struct {
	Name Event

	// Actor owns the event. Empty for navigation, time and DO. A switch
	// event is owned by the actor it switches to.
	Actor Actor

	// Becomes is set on actor switch events, which change nothing but the
	// actor region.
	Becomes Actor

	// Creates is the type of Change the event may append, if any.
	Creates record.ChangeType

	// Local events only move the model (cursor navigation, actor switches)
	// and are never sent to the collaborator.
	Local bool

	// Emits is the collaborator event expected on success.
	Emits string
}

// eventSpecs is the declaration order used for enumeration.
var eventSpecs = []EventSpec{
	{Name: ProposePacket, Actor: Proposer, Creates: record.Header, Emits: "Proposed"},
	{Name: ProposeSolution, Actor: Solver, Creates: record.Solution, Emits: "Proposed"},
	{Name: ProposeEdit, Actor: Editor, Creates: record.Edit, Emits: "Proposed"},
	{Name: FundEth, Actor: Funder, Emits: "Funded"},
	{Name: FundDai, Actor: Funder, Emits: "Funded"},
	{Name: QaResolve, Actor: QA, Emits: "Resolved"},
	{Name: QaReject, Actor: QA, Emits: "Rejected"},
	{Name: DisputeResolve, Actor: Disputer, Creates: record.Dispute, Emits: "Disputed"},
	{Name: DisputeRejection, Actor: Disputer, Creates: record.Dispute, Emits: "Disputed"},
	{Name: DisputeShares, Actor: Disputer, Creates: record.Dispute, Emits: "Disputed"},
	{Name: SuperUphold, Actor: SuperQA, Emits: "Upheld"},
	{Name: SuperDismiss, Actor: SuperQA, Emits: "Dismissed"},
	{Name: Enact, Actor: Service, Creates: record.Packet, Emits: "Enacted"},
	{Name: Claim, Actor: Solver, Emits: "Claimed"},
	{Name: QaClaim, Actor: QA, Emits: "QaClaimed"},
	{Name: Exit, Actor: Solver, Emits: "Exited"},
	{Name: QaExit, Actor: QA, Emits: "QaExited"},
	{Name: DefundStart, Actor: Funder, Emits: "DefundStarted"},
	{Name: DefundStop, Actor: Funder, Emits: "DefundStopped"},
	{Name: DefundExit, Actor: Funder, Emits: "DefundExited"},
	{Name: TradeFunds, Actor: Trader, Emits: "FundsTraded"},
	{Name: TradeContent, Actor: Trader, Emits: "ContentTraded"},
	{Name: TradeMedallion, Actor: Trader, Emits: "MedallionTraded"},
	{Name: TickTime, Emits: "Ticked"},
	{Name: Next, Local: true},
	{Name: Prev, Local: true},
	{Name: FocusUplink, Local: true},
	{Name: Do},
	{Name: BeProposer, Actor: Proposer, Becomes: Proposer, Local: true},
	{Name: BeFunder, Actor: Funder, Becomes: Funder, Local: true},
	{Name: BeSolver, Actor: Solver, Becomes: Solver, Local: true},
	{Name: BeQA, Actor: QA, Becomes: QA, Local: true},
	{Name: BeSuperQA, Actor: SuperQA, Becomes: SuperQA, Local: true},
	{Name: BeTrader, Actor: Trader, Becomes: Trader, Local: true},
	{Name: BeEditor, Actor: Editor, Becomes: Editor, Local: true},
	{Name: BeDisputer, Actor: Disputer, Becomes: Disputer, Local: true},
	{Name: BeService, Actor: Service, Becomes: Service, Local: true},
}

var specIndex = func() map[Event]EventSpec {
	out := make(map[Event]EventSpec, len(eventSpecs))
	for _, spec := range eventSpecs {
		out[spec.Name] = spec
	}
	return out
}()

// SpecOf returns the declaration of e.
func SpecOf(e Event) (EventSpec, bool) {
	spec, ok := specIndex[e]
	return spec, ok
}

// characteristic maps an actor to the event DO performs.
var characteristic = map[Actor]Event{
	Proposer: ProposePacket,
	Funder:   FundEth,
	Solver:   ProposeSolution,
	QA:       QaResolve,
	SuperQA:  SuperUphold,
	Trader:   TradeFunds,
	Editor:   ProposeEdit,
	Disputer: DisputeResolve,
	Service:  Enact,
}

// Characteristic returns the event DO performs for actor.
func Characteristic(a Actor) (Event, bool) {
	e, ok := characteristic[a]
	return e, ok
}

// Switch returns the event that makes a the current actor.
func Switch(a Actor) (Event, bool) {
	for _, spec := range eventSpecs {
		if spec.Becomes == a {
			return spec.Name, true
		}
	}
	return "", false
}
