package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and its trace steps in one transaction and returns
// the run with ID and Seq filled in.
//
// A run that already has an ID keeps it; a duplicate ID is an error since
// runs are never rewritten.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.ids.NewID()
	}

	eventsJSON, err := marshalEvents(run.Events)
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return run, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, path_id, description, events, pass, failure, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Scenario,
		run.PathID,
		run.Description,
		eventsJSON,
		boolToInt(run.Pass),
		run.Failure,
		run.Error,
	)
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	for _, step := range run.Steps {
		emittedJSON, err := marshalEmitted(step.Emitted)
		if err != nil {
			return run, fmt.Errorf("write run: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_steps
			(run_id, seq, type, event, target, emitted, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			step.Seq,
			step.Type,
			string(step.Event),
			int(step.Target),
			emittedJSON,
			step.Reason,
		)
		if err != nil {
			return run, fmt.Errorf("write run step %d: %w", step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
