package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

func do(t *testing.T, l *Ledger, e model.Event, target record.Ref) replay.Outcome {
	t.Helper()
	out, err := l.Do(context.Background(), replay.Operation{Event: e, Target: target})
	require.NoError(t, err)
	return out
}

func TestNewSeedsRootHeader(t *testing.T) {
	l := New()

	require.Equal(t, 1, l.Len())
	e, ok := l.Entity(0)
	require.True(t, ok)
	assert.Equal(t, record.Header, e.Kind)
	assert.Equal(t, record.NoRef, e.Uplink)
}

func TestFundResolveEnact(t *testing.T) {
	l := New()

	assert.Equal(t, []replay.Emitted{{Name: "Funded", ID: 0}}, do(t, l, model.FundEth, 0).Emitted)
	assert.Equal(t, ReasonAlreadyFunded, do(t, l, model.FundEth, 0).Reason)
	do(t, l, model.QaResolve, 0)
	assert.Equal(t, ReasonWindowOpen, do(t, l, model.Enact, 0).Reason)
	do(t, l, model.TickTime, record.NoRef)
	assert.Equal(t, []replay.Emitted{{Name: "Enacted", ID: 0}}, do(t, l, model.Enact, 0).Emitted)

	require.Equal(t, 2, l.Len())
	p, _ := l.Entity(1)
	assert.Equal(t, record.Packet, p.Kind)
	assert.Equal(t, record.Ref(0), p.Uplink)
	assert.Len(t, l.Log(), 4)
}

func TestRevertsLeaveStateUntouched(t *testing.T) {
	l := New()
	before, _ := l.Entity(0)

	out := do(t, l, model.Enact, 0)
	assert.Equal(t, ReasonNotResolved, out.Reason)
	assert.True(t, out.Reverted())

	after, _ := l.Entity(0)
	assert.Equal(t, before, after)
	assert.Empty(t, l.Log())
}

func TestUnknownEntityAndKind(t *testing.T) {
	l := New()

	assert.Equal(t, ReasonUnknownEntity, do(t, l, model.QaResolve, 7).Reason)
	assert.Equal(t, ReasonWrongKind, do(t, l, model.ProposeSolution, 0).Reason)
}

func TestUnsupportedOperationIsAnError(t *testing.T) {
	_, err := New().Do(context.Background(), replay.Operation{Event: model.Next})
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Do(ctx, replay.Operation{Event: model.TickTime})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisputeUpheldFlipsVerdict(t *testing.T) {
	l := New()
	do(t, l, model.QaResolve, 0)

	assert.Equal(t, []replay.Emitted{{Name: "Disputed", ID: 1}}, do(t, l, model.DisputeResolve, 0).Emitted)
	assert.Equal(t, ReasonDisputePending, do(t, l, model.DisputeShares, 0).Reason)

	do(t, l, model.SuperUphold, 1)
	assert.Equal(t, ReasonDisputeSettled, do(t, l, model.SuperDismiss, 1).Reason)

	h, _ := l.Entity(0)
	assert.True(t, h.Rejected)
	assert.False(t, h.Resolved)

	do(t, l, model.TickTime, record.NoRef)
	assert.Equal(t, ReasonNotResolved, do(t, l, model.Enact, 0).Reason)
	assert.Equal(t, ReasonWindowClosed, do(t, l, model.DisputeRejection, 0).Reason)
}

func TestSecondSolutionIsDoubleSolved(t *testing.T) {
	l := New()
	do(t, l, model.QaResolve, 0)
	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.Enact, 0)
	do(t, l, model.ProposeSolution, 1)
	do(t, l, model.ProposeSolution, 1)
	do(t, l, model.QaResolve, 2)
	do(t, l, model.QaResolve, 3)
	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.Enact, 2)
	do(t, l, model.Enact, 3)

	first, _ := l.Entity(2)
	second, _ := l.Entity(3)
	packet, _ := l.Entity(1)
	assert.False(t, first.DoubleSolved)
	assert.True(t, second.DoubleSolved)
	assert.True(t, packet.Enacted)
	assert.Equal(t, ReasonNotOpen, do(t, l, model.ProposeSolution, 1).Reason)
}

func TestClaimExitAndQaExit(t *testing.T) {
	l := New()
	do(t, l, model.QaResolve, 0)
	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.Enact, 0)
	do(t, l, model.ProposeSolution, 1)
	do(t, l, model.QaResolve, 2)
	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.Enact, 2)

	assert.Equal(t, ReasonNotClaimed, do(t, l, model.Exit, 2).Reason)
	do(t, l, model.Claim, 2)
	do(t, l, model.Exit, 2)
	assert.Equal(t, ReasonAlreadyExited, do(t, l, model.Claim, 2).Reason)

	assert.Equal(t, ReasonNotExitable, do(t, l, model.QaExit, 2).Reason)
	do(t, l, model.QaClaim, 2)
	do(t, l, model.QaExit, 2)
	assert.True(t, l.QaExited())
}

func TestDefundLifecycle(t *testing.T) {
	l := New()
	assert.Equal(t, ReasonNotFunded, do(t, l, model.DefundStart, 0).Reason)

	do(t, l, model.FundDai, 0)
	do(t, l, model.DefundStart, 0)
	assert.Equal(t, ReasonDefunding, do(t, l, model.FundEth, 0).Reason)
	assert.Equal(t, ReasonDefundLocked, do(t, l, model.DefundExit, 0).Reason)

	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.DefundExit, 0)
	h, _ := l.Entity(0)
	assert.False(t, h.Funded)
	assert.Equal(t, ReasonNotDefunding, do(t, l, model.DefundStop, 0).Reason)
}

func TestTrading(t *testing.T) {
	l := New()
	do(t, l, model.FundEth, 0)
	do(t, l, model.QaResolve, 0)
	do(t, l, model.TickTime, record.NoRef)
	do(t, l, model.Enact, 0)

	assert.Equal(t, "FundsTraded", do(t, l, model.TradeFunds, 0).Emitted[0].Name)
	assert.Equal(t, ReasonAlreadyTraded, do(t, l, model.TradeFunds, 0).Reason)
	assert.Equal(t, "ContentTraded", do(t, l, model.TradeContent, 0).Emitted[0].Name)
	assert.Equal(t, ReasonWrongKind, do(t, l, model.TradeMedallion, 0).Reason)
	assert.Equal(t, ReasonNotEnacted, do(t, l, model.TradeFunds, 1).Reason)
}
