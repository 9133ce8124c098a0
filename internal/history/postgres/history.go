package postgres

import (
	"context"

	"capplane/internal/history"
)

func (s *Store) RecordTransition(ctx context.Context, rec history.TransitionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (id, capacity_id, from_state, to_state, cause, at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.CapacityID, rec.FromState, rec.ToState, rec.Cause, rec.At,
	)
	return err
}

// RecordRun inserts or updates a run record. A record whose status is
// already terminal is never updated again.
func (s *Store) RecordRun(ctx context.Context, rec history.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (run_id, capacity_id, trigger_id, status, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id) DO UPDATE
		 SET status = EXCLUDED.status, ended_at = EXCLUDED.ended_at
		 WHERE pipeline_runs.ended_at IS NULL`,
		rec.RunID, rec.CapacityID, rec.TriggerID, rec.Status, rec.StartedAt, rec.EndedAt,
	)
	return err
}

func (s *Store) RecordEscalation(ctx context.Context, rec history.EscalationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO escalations (id, capacity_id, reason, at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.CapacityID, rec.Reason, rec.At,
	)
	return err
}

func (s *Store) Transitions(ctx context.Context, capacityID string, limit int) ([]history.TransitionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, capacity_id, from_state, to_state, cause, at
		 FROM transitions WHERE capacity_id = $1
		 ORDER BY at DESC LIMIT $2`,
		capacityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []history.TransitionRecord
	for rows.Next() {
		var rec history.TransitionRecord
		if err := rows.Scan(&rec.ID, &rec.CapacityID, &rec.FromState, &rec.ToState, &rec.Cause, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Escalations(ctx context.Context, capacityID string) ([]history.EscalationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, capacity_id, reason, at
		 FROM escalations WHERE capacity_id = $1
		 ORDER BY at DESC`,
		capacityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []history.EscalationRecord
	for rows.Next() {
		var rec history.EscalationRecord
		if err := rows.Scan(&rec.ID, &rec.CapacityID, &rec.Reason, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
