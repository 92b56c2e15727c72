package model

import (
	"fmt"

	"github.com/roach88/changeoracle/internal/record"
)

// proposePacket appends a header proposal and focuses it.
func proposePacket(c record.Context) record.Context {
	ch := record.NewChange(record.Header, record.NoRef)
	ch.Contents = fmt.Sprintf("header-%d", c.Created)
	next, _ := c.Append(ch)
	return next
}

// proposeUnder appends a Change of type t owned by the cursor Change.
func proposeUnder(t record.ChangeType) record.Action {
	return func(c record.Context) record.Context {
		next, _ := c.Append(record.NewChange(t, c.Cursor))
		return next
	}
}

var (
	proposeSolution = proposeUnder(record.Solution)
	proposeEdit     = proposeUnder(record.Edit)
)

var (
	fundEth = record.Set(patch{"funded": true, "fundedEth": true})
	fundDai = record.Set(patch{"funded": true, "fundedDai": true})
)

func now(c record.Context) any { return c.Time }

// judge records a QA verdict at the current tick.
func judge(field string) record.Action {
	return record.Then(
		record.Set(patch{field: true}),
		record.SetFunc("judgedAt", now),
	)
}

var (
	qaResolve = judge("qaResolved")
	qaReject  = judge("qaRejected")
)

// dispute flags the cursor Change and appends a dispute Change of the same
// kind, focusing it.
func dispute(kind string) record.Action {
	flag := record.Set(patch{kind: true})
	return func(c record.Context) record.Context {
		target := c.Cursor
		c = flag(c)
		next, _ := c.Append(record.NewChange(record.Dispute, target))
		return flag(next)
	}
}

// disputeKind returns the disputed* field a dispute Change carries.
func disputeKind(ch record.Change) string {
	switch {
	case ch.DisputedResolve:
		return "disputedResolve"
	case ch.DisputedRejection:
		return "disputedRejection"
	case ch.DisputedShares:
		return "disputedShares"
	}
	return ""
}

// superUphold decides the cursor dispute in the disputer's favour and flips
// the target's verdict for resolve and rejection disputes.
func superUphold(c record.Context) record.Context {
	d := c.Current()
	c = upheld(c)
	switch disputeKind(d) {
	case "disputedResolve":
		c = overturnResolve(d.Uplink)(c)
	case "disputedRejection":
		c = overturnRejection(d.Uplink)(c)
	}
	return c
}

var (
	upheld            = record.Set(patch{"disputeUpheld": true})
	overturnResolve   = record.SetOn(patch{"qaResolved": false, "qaRejected": true})
	overturnRejection = record.SetOn(patch{"qaResolved": true, "qaRejected": false})
)

var superDismiss = record.Set(patch{"disputeDismissed": true})

// enactHeader enacts the cursor header and creates the packet it proposed.
// The cursor stays on the header.
func enactHeader(c record.Context) record.Context {
	header := c.Cursor
	c = enact(c)
	next, _ := c.Append(record.NewChange(record.Packet, header))
	return next.Focus(header)
}

// enactSolution enacts the cursor solution and solves its packet. A second
// enacted solution for the same packet is marked doubleSolved.
func enactSolution(c record.Context) record.Context {
	packet := c.Current().Uplink
	c = enact(c)
	p, err := c.At(packet)
	if err != nil {
		panic(err)
	}
	if p.Enacted {
		return doubleSolved(c)
	}
	return enactAt(packet)(c)
}

var (
	enact        = record.Set(patch{"enacted": true})
	enactAt      = record.SetOn(patch{"enacted": true})
	enactEdit    = enact
	doubleSolved = record.Set(patch{"doubleSolved": true})
)

var (
	claim   = record.Set(patch{"isClaimed": true})
	qaClaim = record.Then(
		record.Set(patch{"isQaClaimed": true}),
		record.SetGlobal(patch{"qaExitable": true}),
	)
	exit   = record.Set(patch{"exited": true})
	qaExit = record.SetGlobal(patch{"qaExited": true})
)

var defundStart = record.Then(
	record.Set(patch{"defundStarted": true}),
	record.SetFunc("defundAt", now),
)

var (
	defundStop = record.Set(patch{"defundEnded": true})
	defundExit = record.Set(patch{"defundExited": true, "funded": false})
)

var (
	tradeFunds     = record.Set(patch{"tradedFunds": true})
	tradeContent   = record.Set(patch{"contentTraded": true})
	tradeMedallion = record.Set(patch{"medallionTraded": true})
)

func tickTime(c record.Context) record.Context {
	c.Time++
	return c
}

func focusNext(c record.Context) record.Context {
	return c.Focus(c.Cursor + 1)
}

func focusPrev(c record.Context) record.Context {
	return c.Focus(c.Cursor - 1)
}

func focusUplink(c record.Context) record.Context {
	return c.Focus(c.Current().Uplink)
}
