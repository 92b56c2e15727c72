package pathgen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/changeoracle/internal/filter"
	"github.com/roach88/changeoracle/internal/metrics"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

var (
	isEnacted = filter.When(record.Is(record.Patch{"enacted": true}))

	enactOnly = filter.WithEvents(model.QaResolve, model.TickTime, model.Enact)
	fundEnact = filter.WithEvents(model.FundEth, model.QaResolve, model.TickTime, model.Enact)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventsOf(paths []Path) [][]model.Event {
	out := make([][]model.Event, len(paths))
	for i, p := range paths {
		out[i] = p.Events()
	}
	return out
}

func TestGenerate_SingleShortestPath(t *testing.T) {
	paths := MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly), WithLogger(quietLogger()))

	require.Len(t, paths, 1)
	assert.Equal(t, []model.Event{model.QaResolve, model.TickTime, model.Enact}, paths[0].Events())
	assert.Equal(t, 2, paths[0].Final.Context.Len())
	assert.NotEmpty(t, paths[0].ID)
}

func TestGenerate_StepsChainStates(t *testing.T) {
	m := model.New()
	paths := MustGenerate(t, m, isEnacted, WithFilter(enactOnly))

	steps := paths[0].Steps
	assert.Equal(t, m.Initial().Key(), steps[0].From.Key())
	for i := 1; i < len(steps); i++ {
		assert.Equal(t, steps[i-1].To.Key(), steps[i].From.Key())
	}
	assert.Equal(t, paths[0].Final.Key(), steps[len(steps)-1].To.Key())
}

func TestGenerate_FundedEnactment(t *testing.T) {
	target := filter.When(record.Is(record.Patch{"enacted": true, "fundedEth": true}))
	paths := MustGenerate(t, model.New(), target, WithFilter(fundEnact))

	require.Len(t, paths, 1)
	assert.Equal(t, []model.Event{model.FundEth, model.QaResolve, model.TickTime, model.Enact}, paths[0].Events())

	final := paths[0].Final.Context
	assert.True(t, final.Changes[0].Funded)
	assert.Equal(t, record.Packet, final.Changes[1].Type)
	assert.Equal(t, record.Ref(0), final.Changes[1].Uplink)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	target := filter.In("stack.enacted")
	a := MustGenerate(t, model.New(), target, WithFilter(fundEnact))
	b := MustGenerate(t, model.New(), target, WithFilter(fundEnact))

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Events(), b[i].Events())
	}
}

func TestGenerate_OnePathPerClassShortestFirst(t *testing.T) {
	paths := MustGenerate(t, model.New(), filter.In("stack.enacted"), WithFilter(fundEnact))

	assert.Equal(t, [][]model.Event{
		{model.QaResolve, model.TickTime, model.Enact},
		{model.FundEth, model.QaResolve, model.TickTime, model.Enact},
	}, eventsOf(paths))
}

func TestGenerate_TighterFilterNeverAddsPaths(t *testing.T) {
	target := filter.In("stack.enacted")
	loose := MustGenerate(t, model.New(), target, WithFilter(fundEnact))
	tight := MustGenerate(t, model.New(), target, WithFilter(filter.And(fundEnact, filter.SkipEvents(model.FundEth))))

	assert.LessOrEqual(t, len(tight), len(loose))
	require.Len(t, tight, 1)
	assert.Equal(t, loose[0].Events(), tight[0].Events())
}

func TestGenerate_ByKeyKeepsEveryDistinctState(t *testing.T) {
	byClass := MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly))
	byKey := MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly), WithEquivalence(ByKey))

	assert.Greater(t, len(byKey), len(byClass))
	for i := 1; i < len(byKey); i++ {
		assert.LessOrEqual(t, byKey[i-1].Len(), byKey[i].Len(), "paths come out shortest first")
	}
}

func TestGenerate_CoverageErrorWhenNothingMatches(t *testing.T) {
	paths, err := Generate(model.New(), isEnacted,
		WithName("unreachable"),
		WithFilter(filter.WithEvents(model.QaResolve, model.TickTime)),
	)

	assert.Nil(t, paths)
	require.Error(t, err)
	assert.True(t, IsCoverageError(err))

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "unreachable", ge.Scenario)
	assert.Positive(t, ge.Explored)
}

func TestGenerate_MaxDepthBoundsSearch(t *testing.T) {
	_, err := Generate(model.New(), isEnacted, WithFilter(enactOnly), WithMaxDepth(2))

	assert.True(t, IsCoverageError(err))
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	_, err := Generate(model.New(), isEnacted, WithMaxStates(5))

	assert.True(t, IsQuotaError(err))
	assert.False(t, IsCoverageError(err))
}

func TestGenerate_SchemaErrorBecomesModelFault(t *testing.T) {
	lazy := func(s model.State) bool {
		return record.Is(record.Patch{"bogusField": true})(s.Context)
	}

	_, err := Generate(model.New(), lazy, WithFilter(enactOnly))

	assert.True(t, IsModelFault(err))
	assert.True(t, record.IsSchemaError(err))
}

func TestGenerate_InitialStateAsTarget(t *testing.T) {
	m := model.New()
	paths := MustGenerate(t, m, filter.In("stack.open"))

	require.Len(t, paths, 1)
	assert.Equal(t, 0, paths[0].Len())
	assert.Equal(t, m.Initial().Key(), paths[0].Final.Key())
}

func TestGenerate_MaxOneSolution(t *testing.T) {
	m := model.New()
	events := filter.WithEvents(
		model.QaResolve, model.TickTime, model.Enact,
		model.Next, model.ProposeSolution, model.FocusUplink,
	)
	solutions := record.Patch{"type": record.Solution}
	isSolution := filter.When(record.Is(solutions))

	paths := MustGenerate(t, m, isSolution,
		WithFilter(filter.And(events, filter.Max(m, 1, solutions))),
		WithEquivalence(ByKey),
	)
	for _, p := range paths {
		n := 0
		for _, e := range p.Events() {
			if e == model.ProposeSolution {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "path %v", p.Events())
	}

	twoSolutions := filter.IsCount(2, solutions)
	_, err := Generate(m, twoSolutions,
		WithFilter(filter.And(events, filter.Max(m, 1, solutions))),
	)
	assert.True(t, IsCoverageError(err))

	paths = MustGenerate(t, m, twoSolutions,
		WithFilter(filter.And(events, filter.Max(m, 2, solutions))),
	)
	assert.Equal(t, []model.Event{
		model.QaResolve, model.TickTime, model.Enact,
		model.Next, model.ProposeSolution, model.FocusUplink, model.ProposeSolution,
	}, paths[0].Events())
}

func TestGenerate_MaxBoundsDisputeKind(t *testing.T) {
	m := model.New()
	shares := record.Patch{"type": record.Dispute, "disputedShares": true}
	events := filter.WithEvents(model.QaResolve, model.DisputeShares)

	paths := MustGenerate(t, m, filter.IsCount(1, shares), WithFilter(events))
	assert.Equal(t, []model.Event{model.QaResolve, model.DisputeShares}, paths[0].Events())

	_, err := Generate(m, filter.IsCount(1, shares),
		WithFilter(filter.And(events, filter.Max(m, 0, shares))),
	)
	assert.True(t, IsCoverageError(err))
}

func TestGenerate_MaxBoundsFundedChanges(t *testing.T) {
	m := model.New()
	funded := record.Patch{"funded": true}
	events := filter.WithEvents(model.FundEth, model.QaResolve, model.TickTime, model.Enact, model.Next)
	twoFunded := filter.IsCount(2, funded)

	_, err := Generate(m, twoFunded, WithFilter(filter.And(events, filter.Max(m, 1, funded))))
	assert.True(t, IsCoverageError(err))

	paths := MustGenerate(t, m, twoFunded, WithFilter(filter.And(events, filter.Max(m, 2, funded))))
	assert.Equal(t, []model.Event{
		model.FundEth, model.QaResolve, model.TickTime, model.Enact, model.Next, model.FundEth,
	}, paths[0].Events())
}

func TestGenerate_SkippedEventIsNotReachedThroughDo(t *testing.T) {
	m := model.New()
	fundedEth := filter.When(record.Is(record.Patch{"fundedEth": true}))
	events := filter.WithEvents(model.FundDai, model.BeFunder, model.Do)

	paths := MustGenerate(t, m, fundedEth, WithFilter(events))
	assert.Equal(t, []model.Event{model.BeFunder, model.Do}, paths[0].Events())

	_, err := Generate(m, fundedEth, WithFilter(filter.And(events, filter.SkipEvents(model.FundEth))))
	assert.True(t, IsCoverageError(err))
}

func TestGenerate_ActorSwitchesBranch(t *testing.T) {
	m := model.New()
	target := filter.Every(filter.In("actor.qa"), filter.When(record.Is(record.Patch{"qaResolved": true})))

	paths := MustGenerate(t, m, target, WithFilter(filter.WithActors(model.QA)))
	require.Len(t, paths, 1)
	assert.Equal(t, []model.Event{model.QaResolve, model.BeQA}, paths[0].Events())

	_, err := Generate(m, filter.In("actor.funder"), WithFilter(filter.SkipActors(model.Funder)), WithMaxDepth(2))
	assert.True(t, IsCoverageError(err))
}

func TestGenerate_RecordsMetrics(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly), WithName("enact"), WithMetrics(met))

	assert.Equal(t, 1.0, testutil.ToFloat64(met.PathsGenerated.WithLabelValues("enact")))
	assert.Positive(t, testutil.ToFloat64(met.StatesExplored.WithLabelValues("enact")))
}

func TestPathReplay(t *testing.T) {
	paths := MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly))

	var seen []model.Event
	err := paths[0].Replay(context.Background(), func(_ context.Context, s Step) error {
		seen = append(seen, s.Event)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, paths[0].Events(), seen)
}

func TestPathReplayStopsAtFirstError(t *testing.T) {
	paths := MustGenerate(t, model.New(), isEnacted, WithFilter(enactOnly))
	boom := errors.New("boom")

	calls := 0
	err := paths[0].Replay(context.Background(), func(_ context.Context, s Step) error {
		calls++
		if s.Event == model.TickTime {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step 1 (TICK_TIME)")
	assert.Equal(t, 2, calls)
}

func TestFromEvents(t *testing.T) {
	m := model.New()
	p, err := FromEvents(m, model.FundEth, model.QaResolve, model.TickTime, model.Enact)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Len())
	assert.True(t, p.Final.Context.Changes[0].Enacted)

	generated := MustGenerate(t, m, filter.When(record.Is(record.Patch{"enacted": true, "fundedEth": true})), WithFilter(fundEnact))
	assert.Equal(t, generated[0].ID, p.ID)
}

func TestFromEventsRejected(t *testing.T) {
	_, err := FromEvents(model.New(), model.QaResolve, model.TickTime, model.QaResolve)

	var re *model.RejectedError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Index)
	assert.Equal(t, model.QaResolve, re.Event)
}
