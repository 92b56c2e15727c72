package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/replay"
	"github.com/roach88/changeoracle/internal/testutil"
)

// createTestStore creates a new store in a temp dir with sequential ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDs("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a passing run of QA_RESOLVE with a two-entry trace.
func createTestRun(scenario string) Run {
	return Run{
		Scenario:    scenario,
		PathID:      "path-" + scenario,
		Description: "stack.pending.viewing.resolved: QA_RESOLVE",
		Events:      []model.Event{model.QaResolve},
		Pass:        true,
		Steps: []replay.TraceEvent{
			{Seq: 1, Type: replay.TraceOperation, Event: model.QaResolve, Target: 0},
			{Seq: 2, Type: replay.TraceOutcome, Target: 0, Emitted: []replay.Emitted{{Name: "Resolved", ID: 0}}},
		},
	}
}
