package model

import "github.com/roach88/changeoracle/internal/record"

type patch = record.Patch

// Type checks.
var (
	isHeader   = record.Is(patch{"type": record.Header})
	isPacket   = record.Is(patch{"type": record.Packet})
	isSolution = record.Is(patch{"type": record.Solution})
	isDispute  = record.Is(patch{"type": record.Dispute})
	isEdit     = record.Is(patch{"type": record.Edit})

	isJudgeable = record.Or(isHeader, isSolution, isEdit)
	isFundable  = record.Or(isHeader, isPacket)
)

// Resolution-state checks.
var (
	isJudging  = record.Not(patch{"qaResolved": true, "qaRejected": true})
	isResolved = record.Is(patch{"qaResolved": true})
	notEnacted = record.Is(patch{"enacted": false})
	isFunded   = record.Is(patch{"funded": true})

	isDefunding = record.Is(patch{"defundStarted": true, "defundEnded": false, "defundExited": false})
)

// IsTimeN holds when the logical clock reads n.
func IsTimeN(n int) record.Cond {
	return func(c record.Context) bool {
		return c.Time == n
	}
}

// canTick holds while the logical clock is below max.
func canTick(max int) record.Cond {
	return func(c record.Context) bool {
		return c.Time < max
	}
}

// disputeWindowElapsed holds once a tick has passed since the cursor Change
// was judged.
func disputeWindowElapsed(c record.Context) bool {
	return c.Time > c.Current().JudgedAt
}

// defundWindowElapsed holds once a tick has passed since defunding started.
func defundWindowElapsed(c record.Context) bool {
	return c.Time > c.Current().DefundAt
}

// pendingDispute returns the first undecided dispute raised against id.
func pendingDispute(c record.Context, id record.Ref) (record.Change, bool) {
	for _, child := range c.Children(id) {
		ch := c.Changes[child]
		if ch.Type == record.Dispute && !ch.DisputeUpheld && !ch.DisputeDismissed {
			return ch, true
		}
	}
	return record.Change{}, false
}

func hasPendingDispute(c record.Context) bool {
	_, ok := pendingDispute(c, c.Cursor)
	return ok
}

// isEnactable holds when the cursor Change is judged in its favour,
// undisputed (or every dispute is decided) and its dispute window is over.
var isEnactable = record.And(
	isResolved,
	notEnacted,
	disputeWindowElapsed,
	record.Negate(hasPendingDispute),
)

// Navigation bounds.
func isNotFirst(c record.Context) bool {
	return c.Cursor > 0
}

func isNotLast(c record.Context) bool {
	return int(c.Cursor) < c.Len()-1
}

func hasUplink(c record.Context) bool {
	return c.Current().Uplink != record.NoRef
}
