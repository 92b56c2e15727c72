package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns one run with its trace steps.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, scenario, path_id, description, events, pass, failure, error
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Steps, err = s.readSteps(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns runs without their steps, ordered by seq ASC, id ASC
// COLLATE BINARY. An empty scenario lists every run.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, scenario, path_id, description, events, pass, failure, error
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// readSteps returns a run's trace in seq order.
func (s *Store) readSteps(ctx context.Context, runID string) ([]replay.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, event, target, emitted, reason
		FROM run_steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	var steps []replay.TraceEvent
	for rows.Next() {
		var (
			step        replay.TraceEvent
			event       string
			target      int
			emittedJSON string
		)
		if err := rows.Scan(&step.Seq, &step.Type, &event, &target, &emittedJSON, &step.Reason); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		step.Event = model.Event(event)
		step.Target = record.Ref(target)
		step.Emitted, err = unmarshalEmitted(emittedJSON)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run steps: %w", err)
	}
	return steps, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		eventsJSON string
		pass       int
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Scenario,
		&run.PathID,
		&run.Description,
		&eventsJSON,
		&pass,
		&run.Failure,
		&run.Error,
	)
	if err != nil {
		return Run{}, err
	}
	run.Pass = pass == 1
	run.Events, err = unmarshalEvents(eventsJSON)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
