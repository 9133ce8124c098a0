package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"capplane/internal/history"
	"capplane/internal/inventory"
	"capplane/internal/pipeline"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CommandKind names what a command asks the controller to do.
type CommandKind string

const (
	CommandCronTrigger      CommandKind = "cron-trigger"
	CommandCITrigger        CommandKind = "ci-trigger"
	CommandManualActivate   CommandKind = "manual-activate"
	CommandManualDeactivate CommandKind = "manual-deactivate"
)

// Command is one normalized instruction for a single capacity.
type Command struct {
	Kind      CommandKind
	TriggerID uuid.UUID
	At        time.Time
}

// Activator turns a capacity's compute on and off.
type Activator interface {
	Activate(ctx context.Context, capacityID string) error
	Deactivate(ctx context.Context, capacityID string) error
}

// RunCoordinator starts and tracks pipeline runs.
type RunCoordinator interface {
	Start(ctx context.Context, capacityID string, triggerID uuid.UUID) (pipeline.Handle, error)
	Await(ctx context.Context, h pipeline.Handle) pipeline.Status
}

// mailboxSize bounds how many commands may queue per capacity. Commands
// beyond it are refused with an error, never dropped silently.
const mailboxSize = 64

// deactivateGrace bounds the deactivation leg of a cycle, which runs
// detached from the mailbox context so a shutdown mid-run still pauses
// the capacity instead of leaving it billing.
const deactivateGrace = 2 * time.Minute

// Controller owns the lifecycle of exactly one capacity. Commands are
// processed strictly in arrival order; a command that starts an activation
// cycle runs it to completion before the next command is read, so
// transitions for one capacity never interleave.
type Controller struct {
	capacity inventory.Capacity

	mu             sync.Mutex
	state          State
	lastTransition time.Time

	// runCancel aborts the in-flight pipeline run, if any. It is the only
	// part of a cycle reachable from outside the controller goroutine.
	runMu     sync.Mutex
	runCancel context.CancelFunc

	mailbox   chan Command
	activator Activator
	runs      RunCoordinator
	recorder  history.Recorder
	metrics   *Metrics
	retry     RetryPolicy
	log       *slog.Logger
}

// NewController creates a controller in the initial Paused state.
func NewController(
	capacity inventory.Capacity,
	activator Activator,
	runs RunCoordinator,
	recorder history.Recorder,
	metrics *Metrics,
	retry RetryPolicy,
	log *slog.Logger,
) *Controller {
	return &Controller{
		capacity:       capacity,
		state:          StatePaused,
		lastTransition: time.Now().UTC(),
		mailbox:        make(chan Command, mailboxSize),
		activator:      activator,
		runs:           runs,
		recorder:       recorder,
		metrics:        metrics,
		retry:          retry,
		log:            log.With("capacity_id", capacity.ID),
	}
}

// State returns the current state and when it was entered.
func (c *Controller) State() (State, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastTransition
}

// Enqueue queues a command for in-order processing. A full mailbox is an
// error surfaced to the caller, not a silent drop.
func (c *Controller) Enqueue(cmd Command) error {
	select {
	case c.mailbox <- cmd:
		return nil
	default:
		return fmt.Errorf("capacity %s: command mailbox full", c.capacity.ID)
	}
}

// AbortRun cancels the in-flight pipeline run, if there is one. The
// cancellation deterministically drives the cycle through Deactivating,
// whatever status the run itself ends up reporting.
func (c *Controller) AbortRun() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.runCancel == nil {
		return false
	}
	c.runCancel()
	return true
}

// Run processes the mailbox until the context ends.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.mailbox:
			c.handle(ctx, cmd)
		}
	}
}

func (c *Controller) handle(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CommandManualActivate, CommandManualDeactivate:
		c.handleManual(ctx, cmd)
	case CommandCronTrigger, CommandCITrigger:
		c.handleTrigger(ctx, cmd)
	default:
		c.log.Error("unknown command kind", "kind", cmd.Kind)
	}
}

// handleManual records an operator action. Manual-policy capacities are
// driven exclusively this way; the controller never originates Activating
// or Deactivating for them.
func (c *Controller) handleManual(ctx context.Context, cmd Command) {
	var to State
	if cmd.Kind == CommandManualActivate {
		to = StateActiveIdle
	} else {
		to = StatePaused
	}
	if err := c.transitionTo(ctx, to, string(cmd.Kind)); err != nil {
		c.log.Warn("manual action refused", "action", cmd.Kind, "error", err)
	}
}

func (c *Controller) handleTrigger(ctx context.Context, cmd Command) {
	if !c.capacity.Policy.Automated() {
		// the dispatcher filters these; a second gate keeps a manual
		// capacity safe from automation even if routing goes wrong
		c.log.Warn("trigger refused for manual-policy capacity", "kind", cmd.Kind, "trigger_id", cmd.TriggerID)
		return
	}
	if state, _ := c.State(); state != StatePaused {
		c.log.Warn("trigger refused outside Paused state", "kind", cmd.Kind, "state", state, "trigger_id", cmd.TriggerID)
		return
	}
	c.runCycle(ctx, cmd)
}

// runCycle executes one full activation cycle:
// Paused -> Activating -> ActiveIdle -> RunningPipeline -> Deactivating -> Paused.
func (c *Controller) runCycle(ctx context.Context, cmd Command) {
	tracer := otel.Tracer("lifecycle-controller")
	ctx, span := tracer.Start(ctx, "activation_cycle",
		trace.WithAttributes(
			attribute.String("capacity.id", c.capacity.ID),
			attribute.String("trigger.id", cmd.TriggerID.String()),
			attribute.String("trigger.kind", string(cmd.Kind)),
		),
	)
	defer span.End()

	cause := string(cmd.Kind)

	if err := c.transitionTo(ctx, StateActivating, cause); err != nil {
		c.log.Error("cycle aborted", "error", err)
		return
	}

	if err := c.retry.Do(ctx, func(ctx context.Context) error {
		return c.activator.Activate(ctx, c.capacity.ID)
	}); err != nil {
		span.RecordError(err)
		c.escalate(ctx, fmt.Sprintf("activation retries exhausted: %v", err))
		c.transitionTo(ctx, StatePaused, "activation-failed")
		return
	}

	if err := c.transitionTo(ctx, StateActiveIdle, "activated"); err != nil {
		c.log.Error("cycle aborted", "error", err)
		return
	}

	c.executeRun(ctx, cmd, span)

	// the mailbox context may already be dead here (shutdown mid-run);
	// deactivation still has to happen, so it gets a detached context
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deactivateGrace)
	defer cancel()

	if err := c.retry.Do(dctx, func(ctx context.Context) error {
		return c.activator.Deactivate(ctx, c.capacity.ID)
	}); err != nil {
		span.RecordError(err)
		// a capacity left wrongly active burns money and a capacity left
		// wrongly paused breaks the waiting pipeline, so the outcome is
		// pinned explicitly: still active, operator alerted
		c.escalate(dctx, fmt.Sprintf("deactivation retries exhausted, capacity left active: %v", err))
		c.transitionTo(dctx, StateActiveIdle, "deactivation-failed")
		return
	}

	c.transitionTo(dctx, StatePaused, "deactivated")
}

// executeRun starts and awaits the pipeline run for this cycle. Whatever
// the terminal status, the controller ends in Deactivating.
func (c *Controller) executeRun(ctx context.Context, cmd Command, span trace.Span) pipeline.Status {
	var handle pipeline.Handle
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		h, err := c.runs.Start(ctx, c.capacity.ID, cmd.TriggerID)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		span.RecordError(err)
		c.escalate(ctx, fmt.Sprintf("pipeline dispatch retries exhausted: %v", err))
		c.transitionTo(ctx, StateDeactivating, "dispatch-failed")
		return pipeline.StatusFailed
	}

	if err := c.transitionTo(ctx, StateRunningPipeline, "run-started"); err != nil {
		// only one run may be outstanding per capacity
		c.log.Error("run refused", "run_id", handle.RunID, "error", err)
		c.transitionTo(ctx, StateDeactivating, "run-refused")
		return pipeline.StatusFailed
	}
	span.SetAttributes(attribute.String("run.id", handle.RunID))

	c.recordRun(ctx, handle, pipeline.StatusRunning, nil)

	runCtx, cancel := context.WithCancel(ctx)
	c.runMu.Lock()
	c.runCancel = cancel
	c.runMu.Unlock()

	status := c.runs.Await(runCtx, handle)

	c.runMu.Lock()
	c.runCancel = nil
	c.runMu.Unlock()
	cancel()

	ended := time.Now().UTC()
	c.recordRun(ctx, handle, status, &ended)
	span.SetAttributes(attribute.String("run.status", string(status)))
	if c.metrics != nil {
		c.metrics.RunFinished(ctx, c.capacity.ID, string(status))
	}

	// every terminal status drives deactivation; Failed, TimedOut and
	// Cancelled runs must not leave the capacity burning
	c.transitionTo(ctx, StateDeactivating, "run-"+string(status))
	return status
}

// transitionTo applies a state change and emits the structured transition
// record {resource, from, to, cause, timestamp}.
func (c *Controller) transitionTo(ctx context.Context, to State, cause string) error {
	c.mu.Lock()
	from := c.state
	if !CanTransition(from, to) {
		c.mu.Unlock()
		return ErrIllegalTransition{From: from, To: to}
	}
	now := time.Now().UTC()
	c.state = to
	c.lastTransition = now
	c.mu.Unlock()

	c.log.Info("state transition",
		"resource_id", c.capacity.ID,
		"from_state", string(from),
		"to_state", string(to),
		"cause", cause,
		"timestamp", now,
	)
	if c.metrics != nil {
		c.metrics.Transition(ctx, c.capacity.ID, string(from), string(to))
	}
	if err := c.recorder.RecordTransition(ctx, history.TransitionRecord{
		ID:         uuid.New(),
		CapacityID: c.capacity.ID,
		FromState:  string(from),
		ToState:    string(to),
		Cause:      cause,
		At:         now,
	}); err != nil {
		c.log.Warn("transition record not persisted", "error", err)
	}
	return nil
}

func (c *Controller) recordRun(ctx context.Context, h pipeline.Handle, status pipeline.Status, ended *time.Time) {
	if err := c.recorder.RecordRun(ctx, history.RunRecord{
		RunID:      h.RunID,
		CapacityID: h.CapacityID,
		TriggerID:  h.TriggerID,
		Status:     string(status),
		StartedAt:  h.StartedAt,
		EndedAt:    ended,
	}); err != nil {
		c.log.Warn("run record not persisted", "run_id", h.RunID, "error", err)
	}
}

// escalate surfaces a failure to the operator channel. Escalations are
// recorded and logged, never dropped.
func (c *Controller) escalate(ctx context.Context, reason string) {
	c.log.Error("escalation", "resource_id", c.capacity.ID, "reason", reason)
	if c.metrics != nil {
		c.metrics.Escalation(ctx, c.capacity.ID)
	}
	if err := c.recorder.RecordEscalation(ctx, history.EscalationRecord{
		ID:         uuid.New(),
		CapacityID: c.capacity.ID,
		Reason:     reason,
		At:         time.Now().UTC(),
	}); err != nil {
		c.log.Warn("escalation record not persisted", "error", err)
	}
}
