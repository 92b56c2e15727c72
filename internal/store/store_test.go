package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)

		var count int
		require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM runs").Scan(&count))
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_MigratesPreV1Database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := Open(path)
	require.NoError(t, err)

	_, err = s.DB().Exec(`DROP INDEX idx_runs_scenario`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`ALTER TABLE runs DROP COLUMN description`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	stored, err := s.WriteRun(context.Background(), createTestRun("migrated"))
	require.NoError(t, err)
	got, err := s.ReadRun(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Description, got.Description)
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestWriteRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, createTestRun("a"))
	require.NoError(t, err)
	second, err := s.WriteRun(ctx, createTestRun("b"))
	require.NoError(t, err)

	assert.Equal(t, "run-0001", first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "run-0002", second.ID)
	assert.Equal(t, int64(2), second.Seq)
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("a")
	run.ID = "fixed"
	_, err := s.WriteRun(ctx, run)
	require.NoError(t, err)

	_, err = s.WriteRun(ctx, run)
	assert.Error(t, err)

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed insert must not leave a partial run")
}

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestRun("a")
	stored, err := s.WriteRun(ctx, want)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, stored.ID)
	require.NoError(t, err)

	want.ID, want.Seq = stored.ID, stored.Seq
	assert.Equal(t, want, got)
}

func TestReadRun_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := FromResult("disputed", "", replay.Result{
		PathID: "p1",
		Events: []model.Event{model.QaResolve, model.Enact},
		Failure: &replay.AssertionError{
			Kind:     replay.KindExpectedRevert,
			Step:     1,
			Event:    model.Enact,
			Expected: "revert",
			Actual:   "success",
		},
		Err: errors.New("ledger closed"),
		Trace: []replay.TraceEvent{
			{Seq: 1, Type: replay.TraceOperation, Event: model.Enact, Target: record.NoRef},
			{Seq: 2, Type: replay.TraceOutcome, Target: record.NoRef, Reason: "not resolved"},
		},
	})
	stored, err := s.WriteRun(ctx, run)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, stored.ID)
	require.NoError(t, err)

	assert.False(t, got.Pass)
	assert.Equal(t, "expected_revert: expected revert, got success", got.Failure)
	assert.Equal(t, "ledger closed", got.Error)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, record.NoRef, got.Steps[0].Target)
	assert.Nil(t, got.Steps[1].Emitted)
	assert.Equal(t, "not resolved", got.Steps[1].Reason)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_OrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a", "b"} {
		_, err := s.WriteRun(ctx, createTestRun(name))
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "b"}, []string{all[0].Scenario, all[1].Scenario, all[2].Scenario})
	assert.Nil(t, all[0].Steps, "listing does not load steps")

	onlyB, err := s.ListRuns(ctx, "b")
	require.NoError(t, err)
	require.Len(t, onlyB, 2)
	assert.Equal(t, int64(1), onlyB[0].Seq)
	assert.Equal(t, int64(3), onlyB[1].Seq)

	none, err := s.ListRuns(ctx, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.NewID(), g.NewID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
