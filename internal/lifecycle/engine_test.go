package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"capplane/internal/history"
	"capplane/internal/inventory"
	"capplane/internal/pipeline"

	"github.com/google/uuid"
)

func engineRegistry(t *testing.T, caps ...inventory.Capacity) *inventory.Registry {
	t.Helper()
	reg := inventory.NewRegistry(testLogger())
	for _, c := range caps {
		if err := reg.RegisterCapacity(c); err != nil {
			t.Fatalf("RegisterCapacity(%s) failed: %v", c.ID, err)
		}
	}
	return reg
}

func TestSyncRestartsControllerOnPolicyChange(t *testing.T) {
	rec := history.NewMemoryRecorder()
	activator := &mockActivator{}
	runs := &mockRuns{status: pipeline.StatusSucceeded}
	e := NewEngine(activator, runs, rec, nil, testRetry(), testLogger())

	manual := scheduledCapacity()
	manual.Policy = inventory.PolicyManual
	manual.Schedule = ""

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e.Start(ctx, engineRegistry(t, manual))

	// under the manual policy the automated trigger is refused
	if err := e.Dispatch(manual.ID, Command{Kind: CommandCronTrigger, TriggerID: uuid.New(), At: time.Now()}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if calls, _ := activator.counts(); calls != 0 {
		t.Fatalf("manual capacity was activated %d times", calls)
	}

	// a reload flips the policy to scheduled; the controller must follow
	e.Sync(engineRegistry(t, scheduledCapacity()))

	if err := e.Dispatch(manual.ID, Command{Kind: CommandCronTrigger, TriggerID: uuid.New(), At: time.Now()}); err != nil {
		t.Fatalf("Dispatch after sync failed: %v", err)
	}
	waitForTransitions(t, rec, manual.ID, 5)

	if calls, _ := activator.counts(); calls != 1 {
		t.Errorf("got %d activations after policy change, want 1", calls)
	}
}

func TestSyncKeepsUnchangedController(t *testing.T) {
	rec := history.NewMemoryRecorder()
	runs := &mockRuns{blocking: true, started: make(chan struct{})}
	e := NewEngine(&mockActivator{}, runs, rec, nil, testRetry(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e.Start(ctx, engineRegistry(t, scheduledCapacity()))

	if err := e.Dispatch(scheduledCapacity().ID, Command{Kind: CommandCronTrigger, TriggerID: uuid.New(), At: time.Now()}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	<-runs.started

	// an identical spec must not restart the controller mid-run
	e.Sync(engineRegistry(t, scheduledCapacity()))

	state, _, err := e.State(scheduledCapacity().ID)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state != StateRunningPipeline {
		t.Errorf("got state %s after no-op sync, want RunningPipeline", state)
	}
	if aborted, _ := e.Abort(scheduledCapacity().ID); !aborted {
		t.Error("expected the surviving run to abort")
	}
}

func TestSyncStopsControllerForRemovedCapacity(t *testing.T) {
	rec := history.NewMemoryRecorder()
	e := NewEngine(&mockActivator{}, &mockRuns{}, rec, nil, testRetry(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e.Start(ctx, engineRegistry(t, scheduledCapacity()))

	e.Sync(engineRegistry(t))

	err := e.Dispatch(scheduledCapacity().ID, Command{Kind: CommandCronTrigger, TriggerID: uuid.New(), At: time.Now()})
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for removed capacity", err)
	}
}
