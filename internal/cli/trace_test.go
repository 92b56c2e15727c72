package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/replay"
	"github.com/roach88/changeoracle/internal/store"
	"github.com/roach88/changeoracle/internal/testutil"
)

// seedRuns stores one passing and one failing run.
func seedRuns(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db, store.WithIDGenerator(testutil.NewSequentialIDs("run")))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.WriteRun(ctx, store.Run{
		Scenario:    "enact-header",
		PathID:      "p1",
		Description: "stack.enacted: resolveAndEnact",
		Events:      []model.Event{model.QaResolve},
		Pass:        true,
		Steps: []replay.TraceEvent{
			{Seq: 1, Type: replay.TraceOperation, Event: model.QaResolve, Target: 0},
			{Seq: 2, Type: replay.TraceOutcome, Emitted: []replay.Emitted{{Name: "Resolved", ID: 0}}},
		},
	})
	require.NoError(t, err)
	_, err = st.WriteRun(ctx, store.Run{
		Scenario:    "funded",
		PathID:      "p2",
		Description: "stack.open.funding.holding: FUND_ETH",
		Events:      []model.Event{model.FundEth},
		Failure:     "unexpected_revert: expected success, got already funded",
		Steps: []replay.TraceEvent{
			{Seq: 1, Type: replay.TraceOperation, Event: model.FundEth, Target: 0},
			{Seq: 2, Type: replay.TraceOutcome, Reason: "already funded"},
		},
	})
	require.NoError(t, err)
	return db
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(t, "trace")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceList(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)

	assert.Equal(t,
		"✓ [1] run-0001 enact-header: stack.enacted: resolveAndEnact\n"+
			"✗ [2] run-0002 funded: stack.open.funding.holding: FUND_ETH\n",
		stdout)
}

func TestTraceListFiltered(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(t, "trace", "--db", db, "--scenario", "funded", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []StoredRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-0002", resp.Data[0].ID)
	assert.False(t, resp.Data[0].Pass)
	assert.Empty(t, resp.Data[0].Steps)
}

func TestTraceEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	stdout, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs stored\n", stdout)
}

func TestTraceRun(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(t, "trace", "--db", db, "--run", "run-0002")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Run: run-0002 (failed)")
	assert.Contains(t, stdout, "Failure: unexpected_revert")
	assert.Contains(t, stdout, "  [1] operation FUND_ETH -> 0\n")
	assert.Contains(t, stdout, "  [2] reverted: already funded\n")
}

func TestTraceRunJSON(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(t, "trace", "--db", db, "--run", "run-0001", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data StoredRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, []string{"QA_RESOLVE"}, resp.Data.Events)
	require.Len(t, resp.Data.Steps, 2)
	assert.Equal(t, "Resolved", resp.Data.Steps[1].Emitted[0].Name)
}

func TestTraceRunNotFound(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(t, "trace", "--db", db, "--run", "nope")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeNotFound)
}
