package trigger

import (
	"fmt"
	"log/slog"
	"sync"

	"capplane/internal/inventory"

	"github.com/robfig/cron/v3"
)

// Scheduler fires cron events for scheduled capacities. Each scheduled
// capacity contributes one cron entry pinned to that capacity's id; the
// entry emits a normalized event through the dispatcher, which re-resolves
// the id so a reload between tick and dispatch is honoured.
type Scheduler struct {
	dispatcher *Dispatcher
	log        *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(dispatcher *Dispatcher, log *slog.Logger) *Scheduler {
	return &Scheduler{dispatcher: dispatcher, log: log}
}

// Load replaces all cron entries with those of the given capacities and
// starts ticking. Invalid cadence expressions are reported per capacity;
// valid entries still load.
func (s *Scheduler) Load(capacities []inventory.Capacity) []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = cron.New()

	var errs []error
	for _, c := range capacities {
		if c.Policy != inventory.PolicyScheduled {
			continue
		}
		capacity := c
		_, err := s.cron.AddFunc(c.Schedule, func() {
			ev := CronEvent(capacity)
			if _, err := s.dispatcher.Dispatch(ev); err != nil {
				s.log.Warn("scheduled trigger not dispatched", "trigger_id", ev.ID, "error", err)
			}
		})
		if err != nil {
			s.log.Error("invalid schedule", "capacity_id", c.ID, "schedule", c.Schedule, "error", err)
			errs = append(errs, fmt.Errorf("capacity %s: schedule %q: %w", c.ID, c.Schedule, err))
			continue
		}
		s.log.Info("schedule registered", "capacity_id", c.ID, "schedule", c.Schedule)
	}

	s.cron.Start()
	return errs
}

// Stop halts the cron ticker. Entries already firing complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
	}
}
