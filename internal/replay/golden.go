package replay

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/changeoracle/internal/canon"
)

// Snapshot returns the canonical JSON form of r under name. Path ids are
// left out so a snapshot survives changes to unrelated parts of the state.
func Snapshot(name string, r *Result) ([]byte, error) {
	events := make([]string, len(r.Events))
	for i, e := range r.Events {
		events[i] = string(e)
	}
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		m := map[string]any{
			"seq":  ev.Seq,
			"type": ev.Type,
		}
		if ev.Event != "" {
			m["event"] = string(ev.Event)
		}
		if ev.Type != TraceOutcome {
			m["target"] = int(ev.Target)
		}
		if len(ev.Emitted) > 0 {
			emitted := make([]any, len(ev.Emitted))
			for j, em := range ev.Emitted {
				emitted[j] = map[string]any{"name": em.Name, "id": int(em.ID)}
			}
			m["emitted"] = emitted
		}
		if ev.Reason != "" {
			m["reason"] = ev.Reason
		}
		trace[i] = m
	}

	snap := map[string]any{
		"name":   name,
		"events": events,
		"pass":   r.Pass,
		"trace":  trace,
	}
	if r.Failure != nil {
		snap["failure"] = r.Failure.Kind
	}
	return canon.Marshal(snap)
}

// AssertGolden compares r against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/replay -update
func AssertGolden(t *testing.T, name string, r *Result) {
	t.Helper()

	data, err := Snapshot(name, r)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
