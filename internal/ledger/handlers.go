package ledger

import (
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

// handler applies one operation with the lock held. A non-empty reason
// reverts it; handlers check everything before they write.
type handler func(l *Ledger, target record.Ref) ([]replay.Emitted, string)

var handlers = map[model.Event]handler{
	model.ProposePacket:    proposePacket,
	model.ProposeSolution:  proposeSolution,
	model.ProposeEdit:      proposeEdit,
	model.FundEth:          fund(model.FundEth),
	model.FundDai:          fund(model.FundDai),
	model.QaResolve:        judge(true),
	model.QaReject:         judge(false),
	model.DisputeResolve:   dispute(model.DisputeResolve),
	model.DisputeRejection: dispute(model.DisputeRejection),
	model.DisputeShares:    dispute(model.DisputeShares),
	model.SuperUphold:      arbitrate(true),
	model.SuperDismiss:     arbitrate(false),
	model.Enact:            enact,
	model.Claim:            claim,
	model.QaClaim:          qaClaim,
	model.Exit:             exit,
	model.QaExit:           qaExit,
	model.DefundStart:      defundStart,
	model.DefundStop:       defundStop,
	model.DefundExit:       defundExit,
	model.TradeFunds:       tradeFunds,
	model.TradeContent:     tradeContent,
	model.TradeMedallion:   tradeMedallion,
	model.TickTime:         tick,
}

func emit(name string, id record.Ref) []replay.Emitted {
	return []replay.Emitted{{Name: name, ID: id}}
}

// entity looks up target and checks its kind against kinds, if any.
func (l *Ledger) entity(target record.Ref, kinds ...record.ChangeType) (*Entity, string) {
	e, ok := l.get(target)
	if !ok {
		return nil, ReasonUnknownEntity
	}
	if len(kinds) == 0 {
		return e, ""
	}
	for _, k := range kinds {
		if e.Kind == k {
			return e, ""
		}
	}
	return nil, ReasonWrongKind
}

func proposePacket(l *Ledger, _ record.Ref) ([]replay.Emitted, string) {
	e := l.create(record.Header, record.NoRef)
	return emit("Proposed", e.ID), ""
}

func proposeSolution(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	p, reason := l.entity(target, record.Packet)
	if reason != "" {
		return nil, reason
	}
	if p.Enacted {
		return nil, ReasonNotOpen
	}
	e := l.create(record.Solution, p.ID)
	return emit("Proposed", e.ID), ""
}

func proposeEdit(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	h, reason := l.entity(target, record.Header)
	if reason != "" {
		return nil, reason
	}
	if !h.Enacted {
		return nil, ReasonNotEnacted
	}
	e := l.create(record.Edit, h.ID)
	return emit("Proposed", e.ID), ""
}

func fund(asset model.Event) handler {
	return func(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
		e, reason := l.entity(target, record.Header, record.Packet)
		if reason != "" {
			return nil, reason
		}
		switch {
		case !e.open():
			return nil, ReasonNotOpen
		case asset == model.FundEth && e.FundedEth, asset == model.FundDai && e.FundedDai:
			return nil, ReasonAlreadyFunded
		case e.DefundStarted:
			return nil, ReasonDefunding
		}
		e.Funded = true
		if asset == model.FundEth {
			e.FundedEth = true
		} else {
			e.FundedDai = true
		}
		return emit("Funded", e.ID), ""
	}
}

func judge(resolve bool) handler {
	return func(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
		e, reason := l.entity(target, record.Header, record.Solution, record.Edit)
		if reason != "" {
			return nil, reason
		}
		switch {
		case e.Enacted:
			return nil, ReasonAlreadyEnacted
		case e.judged():
			return nil, ReasonAlreadyJudged
		}
		e.JudgedAt = l.time
		if resolve {
			e.Resolved = true
			return emit("Resolved", e.ID), ""
		}
		e.Rejected = true
		return emit("Rejected", e.ID), ""
	}
}

func dispute(kind model.Event) handler {
	return func(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
		e, reason := l.entity(target, record.Header, record.Solution, record.Edit)
		if reason != "" {
			return nil, reason
		}
		switch {
		case e.Enacted:
			return nil, ReasonAlreadyEnacted
		case kind == model.DisputeRejection && !e.Rejected:
			return nil, ReasonNotRejected
		case kind != model.DisputeRejection && !e.Resolved:
			return nil, ReasonNotResolved
		case l.pendingDispute(e.ID):
			return nil, ReasonDisputePending
		case l.time > e.JudgedAt:
			return nil, ReasonWindowClosed
		case kind == model.DisputeResolve && e.DisputedResolve,
			kind == model.DisputeRejection && e.DisputedRejection,
			kind == model.DisputeShares && e.DisputedShares:
			return nil, ReasonAlreadyDisputed
		}
		switch kind {
		case model.DisputeResolve:
			e.DisputedResolve = true
		case model.DisputeRejection:
			e.DisputedRejection = true
		case model.DisputeShares:
			e.DisputedShares = true
		}
		d := l.create(record.Dispute, e.ID)
		d.DisputeKind = kind
		return emit("Disputed", d.ID), ""
	}
}

func arbitrate(uphold bool) handler {
	return func(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
		d, reason := l.entity(target, record.Dispute)
		if reason != "" {
			return nil, reason
		}
		if d.Upheld || d.Dismissed {
			return nil, ReasonDisputeSettled
		}
		if !uphold {
			d.Dismissed = true
			return emit("Dismissed", d.ID), ""
		}
		d.Upheld = true
		e := l.entities[d.Uplink]
		switch d.DisputeKind {
		case model.DisputeResolve:
			e.Resolved, e.Rejected = false, true
		case model.DisputeRejection:
			e.Resolved, e.Rejected = true, false
		}
		return emit("Upheld", d.ID), ""
	}
}

func enact(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Header, record.Solution, record.Edit)
	if reason != "" {
		return nil, reason
	}
	switch {
	case e.Enacted:
		return nil, ReasonAlreadyEnacted
	case !e.Resolved:
		return nil, ReasonNotResolved
	case l.pendingDispute(e.ID):
		return nil, ReasonDisputePending
	case l.time <= e.JudgedAt:
		return nil, ReasonWindowOpen
	}
	e.Enacted = true
	switch e.Kind {
	case record.Header:
		l.create(record.Packet, e.ID)
	case record.Solution:
		p := l.entities[e.Uplink]
		if p.Enacted {
			e.DoubleSolved = true
		} else {
			p.Enacted = true
		}
	}
	return emit("Enacted", e.ID), ""
}

func claim(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Solution)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.Exited:
		return nil, ReasonAlreadyExited
	case e.Claimed:
		return nil, ReasonAlreadyClaimed
	}
	e.Claimed = true
	return emit("Claimed", e.ID), ""
}

func qaClaim(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Header, record.Solution, record.Edit)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.QaClaimed:
		return nil, ReasonAlreadyClaimed
	}
	e.QaClaimed = true
	l.qaExitable = true
	return emit("QaClaimed", e.ID), ""
}

func exit(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Solution)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.Exited:
		return nil, ReasonAlreadyExited
	case !e.Claimed:
		return nil, ReasonNotClaimed
	}
	e.Exited = true
	return emit("Exited", e.ID), ""
}

func qaExit(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	switch {
	case !l.qaExitable:
		return nil, ReasonNotExitable
	case l.qaExited:
		return nil, ReasonAlreadyExited
	}
	l.qaExited = true
	return emit("QaExited", target), ""
}

func defundStart(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.open():
		return nil, ReasonNotOpen
	case e.DefundStarted:
		return nil, ReasonDefunding
	case !e.Funded:
		return nil, ReasonNotFunded
	}
	e.DefundStarted = true
	e.DefundAt = l.time
	return emit("DefundStarted", e.ID), ""
}

func defundStop(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.open():
		return nil, ReasonNotOpen
	case !e.defunding():
		return nil, ReasonNotDefunding
	}
	e.DefundStopped = true
	return emit("DefundStopped", e.ID), ""
}

func defundExit(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.open():
		return nil, ReasonNotOpen
	case !e.defunding():
		return nil, ReasonNotDefunding
	case l.time <= e.DefundAt:
		return nil, ReasonDefundLocked
	}
	e.DefundExited = true
	e.Funded = false
	return emit("DefundExited", e.ID), ""
}

func tradeFunds(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Header, record.Packet)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.FundsTraded:
		return nil, ReasonAlreadyTraded
	case !e.Funded:
		return nil, ReasonNotFunded
	}
	e.FundsTraded = true
	return emit("FundsTraded", e.ID), ""
}

func tradeContent(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Header, record.Edit)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.ContentTraded:
		return nil, ReasonAlreadyTraded
	}
	e.ContentTraded = true
	return emit("ContentTraded", e.ID), ""
}

func tradeMedallion(l *Ledger, target record.Ref) ([]replay.Emitted, string) {
	e, reason := l.entity(target, record.Solution)
	if reason != "" {
		return nil, reason
	}
	switch {
	case !e.Enacted:
		return nil, ReasonNotEnacted
	case e.MedallionTraded:
		return nil, ReasonAlreadyTraded
	}
	e.MedallionTraded = true
	return emit("MedallionTraded", e.ID), ""
}

func tick(l *Ledger, _ record.Ref) ([]replay.Emitted, string) {
	l.time++
	return emit("Ticked", record.NoRef), ""
}
