package model

import (
	"fmt"
	"strings"

	"github.com/roach88/changeoracle/internal/record"
)

// Top-level region names.
const (
	RegionActor = "actor"
	RegionStack = "stack"
	RegionView  = "view"
)

// stackLabels derives the active leaves of the stack region for the cursor
// Change. Each branch corresponds to the eventless transitions of the
// lifecycle: open advances to pending once QA is no longer judging, and
// pending advances to enacted once the change is enacted.
func stackLabels(c record.Context) []string {
	ch := c.Current()

	if ch.Type == record.Dispute {
		switch {
		case ch.DisputeUpheld:
			return []string{"stack.settled.upheld"}
		case ch.DisputeDismissed:
			return []string{"stack.settled.dismissed"}
		}
		return []string{"stack.open.superQa.arbitrating." + strings.ToLower(strings.TrimPrefix(disputeKind(ch), "disputed"))}
	}

	if ch.Enacted {
		return enactedLabels(ch)
	}

	if isJudgeable(c) && !isJudging(c) {
		if d, ok := pendingDispute(c, c.Cursor); ok {
			return []string{"stack.pending.dispute." + strings.ToLower(strings.TrimPrefix(disputeKind(d), "disputed"))}
		}
		if ch.QaResolved {
			return []string{"stack.pending.viewing.resolved"}
		}
		return []string{"stack.pending.viewing.rejected"}
	}

	return []string{
		"stack.open.funding." + fundingState(c),
		"stack.open.qa.judging",
		"stack.open.superQa.idle",
	}
}

func fundingState(c record.Context) string {
	switch {
	case isDefunding(c):
		return "defunding"
	case isFunded(c):
		return "holding"
	}
	return "unfunded"
}

// enactedLabels covers the parallel trading and claims sub-regions.
func enactedLabels(ch record.Change) []string {
	funds := "unfunded"
	switch {
	case ch.TradedFunds:
		funds = "traded"
	case ch.Funded:
		funds = "funded"
	}
	content := "enacted"
	if ch.ContentTraded {
		content = "traded"
	}
	medallion := "enacted"
	if ch.MedallionTraded {
		medallion = "traded"
	}
	claims := "unclaimed"
	switch {
	case ch.Exited:
		claims = "exited"
	case ch.IsClaimed:
		claims = "claimed"
	}
	qa := "unclaimed"
	if ch.IsQaClaimed {
		qa = "claimed"
	}
	return []string{
		"stack.enacted.trading.funds." + funds,
		"stack.enacted.trading.content." + content,
		"stack.enacted.trading.medallion." + medallion,
		"stack.enacted.claims.solver." + claims,
		"stack.enacted.claims.qa." + qa,
	}
}

// viewLabels are informational projections of the Context.
func viewLabels(c record.Context) []string {
	ch := c.Current()
	position := "middle"
	switch {
	case c.Len() == 1:
		position = "only"
	case c.Cursor == 0:
		position = "first"
	case int(c.Cursor) == c.Len()-1:
		position = "last"
	}
	return []string{
		"view.type." + strings.ToLower(string(ch.Type)),
		"view.position." + position,
		fmt.Sprintf("view.time.t%d", c.Time),
	}
}

// matchLabel reports whether label is path or lies under it.
func matchLabel(label, path string) bool {
	if path == "" || label == path {
		return true
	}
	return strings.HasPrefix(label, path+".")
}
