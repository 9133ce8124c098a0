// Package history records what the orchestrator did: every state
// transition, every pipeline run, and every escalation to an operator.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransitionRecord is one state change of one capacity.
type TransitionRecord struct {
	ID         uuid.UUID
	CapacityID string
	FromState  string
	ToState    string
	Cause      string
	At         time.Time
}

// RunRecord is the audit trail of one pipeline run. A record is updated
// until its status turns terminal, then never again.
type RunRecord struct {
	RunID      string
	CapacityID string
	TriggerID  uuid.UUID
	Status     string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// EscalationRecord is a failure surfaced to the operator channel.
type EscalationRecord struct {
	ID         uuid.UUID
	CapacityID string
	Reason     string
	At         time.Time
}

// Recorder persists orchestration history. Recording failures must never
// stall a controller, so callers log and continue on error.
type Recorder interface {
	RecordTransition(ctx context.Context, rec TransitionRecord) error
	RecordRun(ctx context.Context, rec RunRecord) error
	RecordEscalation(ctx context.Context, rec EscalationRecord) error

	// Transitions returns the most recent transitions for a capacity,
	// newest first.
	Transitions(ctx context.Context, capacityID string, limit int) ([]TransitionRecord, error)

	// Escalations returns all escalations for a capacity, newest first.
	Escalations(ctx context.Context, capacityID string) ([]EscalationRecord, error)
}

// MemoryRecorder keeps history in process memory. It is the fallback when
// no database is configured, and the workhorse of the test suite.
type MemoryRecorder struct {
	mu          sync.Mutex
	transitions []TransitionRecord
	runs        map[string]RunRecord
	escalations []EscalationRecord
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{runs: make(map[string]RunRecord)}
}

func (m *MemoryRecorder) RecordTransition(_ context.Context, rec TransitionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, rec)
	return nil
}

func (m *MemoryRecorder) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[rec.RunID] = rec
	return nil
}

func (m *MemoryRecorder) RecordEscalation(_ context.Context, rec EscalationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations = append(m.escalations, rec)
	return nil
}

func (m *MemoryRecorder) Transitions(_ context.Context, capacityID string, limit int) ([]TransitionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []TransitionRecord
	for _, rec := range m.transitions {
		if rec.CapacityID == capacityID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRecorder) Escalations(_ context.Context, capacityID string) ([]EscalationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []EscalationRecord
	for _, rec := range m.escalations {
		if rec.CapacityID == capacityID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, nil
}

// Runs returns all recorded runs for a capacity. Test helper surface.
func (m *MemoryRecorder) Runs(capacityID string) []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []RunRecord
	for _, rec := range m.runs {
		if rec.CapacityID == capacityID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
