package pathgen

import (
	"fmt"
	"testing"
	"time"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/filter"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// node is one dequeued search state with its predecessor link.
type node struct {
	state  model.State
	parent int
	event  model.Event
	depth  int
}

// Generate returns one shortest path per equivalence class of reachable
// states that satisfy target.
//
// Schema and shape errors raised by guards, actions, filters or the target
// are returned as a MODEL_FAULT GenerationError wrapping the original error.
func Generate(m *model.Machine, target filter.Target, opts ...Option) (paths []Path, err error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	q := newQuota(cfg.maxStates)
	defer func() {
		status := "ok"
		switch {
		case IsCoverageError(err):
			status = "coverage"
		case IsQuotaError(err):
			status = "quota"
		case err != nil:
			status = "fault"
		}
		cfg.metrics.ObserveGeneration(cfg.name, status, q.used(), len(paths), time.Since(start))
	}()
	paths, err = guarded(m, target, cfg, q)
	if record.IsSchemaError(err) || record.IsShapeError(err) {
		return nil, &GenerationError{
			Code:     ErrCodeModelFault,
			Message:  "model raised an error during search",
			Scenario: cfg.name,
			Explored: q.used(),
			Err:      err,
		}
	}
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &GenerationError{
			Code:     ErrCodeCoverage,
			Message:  "no path reaches the target; the filter or target removed every scenario",
			Scenario: cfg.name,
			Explored: q.used(),
		}
	}

	cfg.logger.Debug("paths generated",
		"scenario", cfg.name,
		"paths", len(paths),
		"explored", q.used(),
		"duration", time.Since(start),
	)
	return paths, nil
}

// guarded converts schema and shape panics raised during search into errors.
func guarded(m *model.Machine, target filter.Target, cfg config, q *quota) (paths []Path, err error) {
	defer record.Recover(&err)
	return search(m, target, cfg, q)
}

func search(m *model.Machine, target filter.Target, cfg config, q *quota) ([]Path, error) {
	initial := m.Initial()
	nodes := []node{{state: initial, parent: -1}}
	visited := map[string]bool{initial.Key(): true}
	found := make(map[string]bool)
	events := m.Events()

	var paths []Path
	for head := 0; head < len(nodes); head++ {
		if !q.take() {
			return nil, &GenerationError{
				Code:     ErrCodeQuotaExceeded,
				Message:  fmt.Sprintf("search exceeded %d states", cfg.maxStates),
				Scenario: cfg.name,
				Explored: q.used() - 1,
			}
		}
		n := nodes[head]

		if target(n.state) {
			class := cfg.equivalence(n.state)
			if !found[class] {
				found[class] = true
				p := buildPath(nodes, head)
				cfg.logger.Debug("path found",
					"scenario", cfg.name,
					"path", canon.Short(p.ID),
					"len", p.Len(),
					"class", class,
				)
				paths = append(paths, p)
			}
			continue
		}
		if n.depth >= cfg.maxDepth {
			continue
		}

		for _, spec := range events {
			if !cfg.filter(n.state, spec.Name) {
				continue
			}
			next, ok := m.Transition(n.state, spec.Name)
			if !ok {
				continue
			}
			key := next.Key()
			if visited[key] {
				continue
			}
			visited[key] = true
			nodes = append(nodes, node{
				state:  next,
				parent: head,
				event:  spec.Name,
				depth:  n.depth + 1,
			})
		}
	}
	return paths, nil
}

// buildPath follows predecessor links from nodes[i] back to the root.
func buildPath(nodes []node, i int) Path {
	var steps []Step
	for n := nodes[i]; n.parent >= 0; n = nodes[n.parent] {
		steps = append(steps, Step{
			From:  nodes[n.parent].state,
			Event: n.event,
			To:    n.state,
		})
	}
	for l, r := 0, len(steps)-1; l < r; l, r = l+1, r-1 {
		steps[l], steps[r] = steps[r], steps[l]
	}
	final := nodes[i].state
	p := Path{Steps: steps, Final: final}
	p.ID = pathID(p.Events(), final)
	return p
}

// MustGenerate is Generate for tests: any error, including a coverage
// error, fails t immediately.
func MustGenerate(t testing.TB, m *model.Machine, target filter.Target, opts ...Option) []Path {
	t.Helper()
	paths, err := Generate(m, target, opts...)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return paths
}
