package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"capplane/internal/history"
	"capplane/internal/inventory"
)

// Engine owns one controller per registered capacity. Controllers run
// concurrently and independently: one capacity's failure never touches
// another's controller.
type Engine struct {
	activator Activator
	runs      RunCoordinator
	recorder  history.Recorder
	metrics   *Metrics
	retry     RetryPolicy
	log       *slog.Logger

	mu          sync.RWMutex
	controllers map[string]*managed
	ctx         context.Context
	wg          sync.WaitGroup
}

type managed struct {
	controller *Controller
	cancel     context.CancelFunc
}

// NewEngine creates an engine with no controllers yet.
func NewEngine(
	activator Activator,
	runs RunCoordinator,
	recorder history.Recorder,
	metrics *Metrics,
	retry RetryPolicy,
	log *slog.Logger,
) *Engine {
	return &Engine{
		activator:   activator,
		runs:        runs,
		recorder:    recorder,
		metrics:     metrics,
		retry:       retry,
		log:         log,
		controllers: make(map[string]*managed),
	}
}

// Start launches controllers for every capacity in the registry. It must
// be called once before Dispatch; ctx ends all controllers.
func (e *Engine) Start(ctx context.Context, reg *inventory.Registry) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
	e.Sync(reg)
}

// Sync reconciles controllers against the registry: capacities without a
// controller get one, controllers without a capacity are stopped, and a
// controller whose capacity spec changed is restarted so it follows the
// new policy. A restarted controller comes back in Paused. Called at
// startup and after every inventory reload.
func (e *Engine) Sync(reg *inventory.Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	want := make(map[string]inventory.Capacity)
	for _, c := range reg.Capacities() {
		want[c.ID] = c
	}

	for id, m := range e.controllers {
		capacity, ok := want[id]
		if !ok {
			e.log.Info("stopping controller for removed capacity", "capacity_id", id)
			m.cancel()
			delete(e.controllers, id)
			continue
		}
		if m.controller.capacity != capacity {
			e.log.Info("restarting controller for changed capacity",
				"capacity_id", id, "policy", capacity.Policy)
			m.cancel()
			delete(e.controllers, id)
		}
	}

	for id, capacity := range want {
		if _, ok := e.controllers[id]; ok {
			continue
		}
		controller := NewController(capacity, e.activator, e.runs, e.recorder, e.metrics, e.retry, e.log)
		ctx, cancel := context.WithCancel(e.ctx)
		e.controllers[id] = &managed{controller: controller, cancel: cancel}

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			controller.Run(ctx)
		}()
		e.log.Info("controller started", "capacity_id", id, "policy", capacity.Policy)
	}
}

// Dispatch queues a command for a capacity's controller.
func (e *Engine) Dispatch(capacityID string, cmd Command) error {
	e.mu.RLock()
	m, ok := e.controllers[capacityID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: capacity %s has no controller", inventory.ErrNotFound, capacityID)
	}
	return m.controller.Enqueue(cmd)
}

// Abort cancels the in-flight pipeline run of a capacity, if any.
// It reports whether a run was actually aborted.
func (e *Engine) Abort(capacityID string) (bool, error) {
	e.mu.RLock()
	m, ok := e.controllers[capacityID]
	e.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: capacity %s has no controller", inventory.ErrNotFound, capacityID)
	}
	return m.controller.AbortRun(), nil
}

// State returns the lifecycle state of a capacity.
func (e *Engine) State(capacityID string) (State, time.Time, error) {
	e.mu.RLock()
	m, ok := e.controllers[capacityID]
	e.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: capacity %s has no controller", inventory.ErrNotFound, capacityID)
	}
	state, at := m.controller.State()
	return state, at, nil
}

// ActiveCount returns how many capacities are not Paused. Feeds the
// active-capacity gauge.
func (e *Engine) ActiveCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var n int64
	for _, m := range e.controllers {
		if state, _ := m.controller.State(); state != StatePaused {
			n++
		}
	}
	return n
}

// Wait blocks until all controllers have stopped.
func (e *Engine) Wait() {
	e.wg.Wait()
}
