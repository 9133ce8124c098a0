package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"capplane/internal/history"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	return &Store{db: db}, mock
}

func TestRecordTransition(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	rec := history.TransitionRecord{
		ID:         uuid.New(),
		CapacityID: "fcav01prodengineering",
		FromState:  "Paused",
		ToState:    "Activating",
		Cause:      "cron-trigger",
		At:         time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO transitions`).
		WithArgs(rec.ID, rec.CapacityID, rec.FromState, rec.ToState, rec.Cause, rec.At).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.RecordTransition(context.Background(), rec); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordRunUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	ended := time.Now().UTC()
	rec := history.RunRecord{
		RunID:      "run-7",
		CapacityID: "fcav01prodengineering",
		TriggerID:  uuid.New(),
		Status:     "Succeeded",
		StartedAt:  ended.Add(-10 * time.Minute),
		EndedAt:    &ended,
	}

	mock.ExpectExec(`INSERT INTO pipeline_runs`).
		WithArgs(rec.RunID, rec.CapacityID, rec.TriggerID, rec.Status, rec.StartedAt, rec.EndedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.RecordRun(context.Background(), rec); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordEscalationDatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectExec(`INSERT INTO escalations`).
		WillReturnError(sql.ErrConnDone)

	err := store.RecordEscalation(context.Background(), history.EscalationRecord{
		ID:         uuid.New(),
		CapacityID: "fcav01prodengineering",
		Reason:     "activation retries exhausted",
		At:         time.Now().UTC(),
	})
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestTransitions(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	now := time.Now().UTC()
	id1, id2 := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id, capacity_id, from_state, to_state, cause, at`).
		WithArgs("fcav01prodengineering", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity_id", "from_state", "to_state", "cause", "at"}).
			AddRow(id2, "fcav01prodengineering", "Activating", "ActiveIdle", "activated", now).
			AddRow(id1, "fcav01prodengineering", "Paused", "Activating", "cron-trigger", now.Add(-time.Minute)))

	recs, err := store.Transitions(context.Background(), "fcav01prodengineering", 10)
	if err != nil {
		t.Fatalf("Transitions failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ToState != "ActiveIdle" {
		t.Errorf("got newest ToState %q, want ActiveIdle", recs[0].ToState)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEscalations(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectQuery(`SELECT id, capacity_id, reason, at`).
		WithArgs("fcav01prodengineering").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity_id", "reason", "at"}).
			AddRow(uuid.New(), "fcav01prodengineering", "deactivation retries exhausted", time.Now().UTC()))

	recs, err := store.Escalations(context.Background(), "fcav01prodengineering")
	if err != nil {
		t.Fatalf("Escalations failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}
