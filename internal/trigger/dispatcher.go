// Package trigger normalizes external events, cron ticks and CI merge
// notifications, into TriggerEvents and routes each one to at most one
// capacity controller.
package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"capplane/internal/inventory"
	"capplane/internal/lifecycle"

	"github.com/google/uuid"
)

// Kind is the family an external event belongs to.
type Kind string

const (
	KindCron    Kind = "Cron"
	KindCIMerge Kind = "CIMergeToTarget"
)

// Event is the normalized trigger record. Events are created once by the
// dispatcher and never mutated.
type Event struct {
	ID                uuid.UUID
	Kind              Kind
	Timestamp         time.Time
	TargetEnvironment inventory.Environment

	// TargetCapacity pins the event to the capacity that owns it. Cron
	// events carry the scheduled capacity's id; CI events leave it empty
	// and resolve by environment instead.
	TargetCapacity string

	RawPayload json.RawMessage
}

// ErrDropped is returned when an event matched no eligible capacity.
// Dropped events are reported to the caller and logged, never swallowed.
var ErrDropped = errors.New("trigger event dropped")

// Resolver finds the capacity an event targets.
type Resolver interface {
	Lookup(env inventory.Environment, class inventory.WorkloadClass) (inventory.Capacity, error)
	Capacity(id string) (inventory.Capacity, error)
}

// Commander queues a command on a capacity's controller.
type Commander interface {
	Dispatch(capacityID string, cmd lifecycle.Command) error
}

// Dispatcher resolves normalized events against the registry and issues
// lifecycle commands.
type Dispatcher struct {
	resolver Resolver
	engine   Commander

	// branches maps CI branch names to target environments,
	// e.g. "main" -> PROD, "develop" -> DEV.
	branches map[string]inventory.Environment

	log *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(resolver Resolver, engine Commander, branches map[string]inventory.Environment, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		engine:   engine,
		branches: branches,
		log:      log,
	}
}

// CronEvent normalizes a schedule tick for the capacity that declared the
// cadence. The event stays pinned to that capacity, so a second scheduled
// capacity in the same environment never fires on a foreign cadence.
func CronEvent(c inventory.Capacity) Event {
	return Event{
		ID:                uuid.New(),
		Kind:              KindCron,
		Timestamp:         time.Now().UTC(),
		TargetEnvironment: c.Environment,
		TargetCapacity:    c.ID,
	}
}

// CIMergeEvent normalizes a CI webhook notification. Only merged changes
// on a mapped branch produce an event.
func (d *Dispatcher) CIMergeEvent(branch, status string, payload json.RawMessage) (Event, error) {
	if status != "merged" {
		return Event{}, fmt.Errorf("%w: CI status %q is not merged", ErrDropped, status)
	}
	env, ok := d.branches[branch]
	if !ok {
		return Event{}, fmt.Errorf("%w: branch %q maps to no environment", ErrDropped, branch)
	}
	return Event{
		ID:                uuid.New(),
		Kind:              KindCIMerge,
		Timestamp:         time.Now().UTC(),
		TargetEnvironment: env,
		RawPayload:        payload,
	}, nil
}

// Dispatch resolves the event to at most one capacity and queues the
// matching lifecycle command, returning the resolved capacity id.
// Pipelines run on engineering capacities, whatever the event family;
// consumption capacities are never triggered.
func (d *Dispatcher) Dispatch(ev Event) (string, error) {
	var capacity inventory.Capacity
	var err error
	if ev.TargetCapacity != "" {
		// re-resolve by id so a reload between tick and dispatch is honoured
		capacity, err = d.resolver.Capacity(ev.TargetCapacity)
	} else {
		capacity, err = d.resolver.Lookup(ev.TargetEnvironment, inventory.ClassEngineering)
	}
	if err != nil {
		d.report(ev, fmt.Sprintf("no capacity for environment %s", ev.TargetEnvironment))
		return "", fmt.Errorf("%w: %v", ErrDropped, err)
	}
	if capacity.Class != inventory.ClassEngineering {
		d.report(ev, fmt.Sprintf("capacity %s is %s class, pipelines need engineering", capacity.ID, capacity.Class))
		return "", fmt.Errorf("%w: capacity %s is not an engineering capacity", ErrDropped, capacity.ID)
	}

	var want inventory.Policy
	var kind lifecycle.CommandKind
	switch ev.Kind {
	case KindCron:
		want, kind = inventory.PolicyScheduled, lifecycle.CommandCronTrigger
	case KindCIMerge:
		want, kind = inventory.PolicyCIGated, lifecycle.CommandCITrigger
	default:
		d.report(ev, "unknown event kind")
		return "", fmt.Errorf("%w: unknown kind %q", ErrDropped, ev.Kind)
	}

	if capacity.Policy != want {
		d.report(ev, fmt.Sprintf("capacity %s has policy %s, needs %s", capacity.ID, capacity.Policy, want))
		return "", fmt.Errorf("%w: capacity %s policy %s does not accept %s events", ErrDropped, capacity.ID, capacity.Policy, ev.Kind)
	}

	d.log.Info("trigger dispatched",
		"trigger_id", ev.ID, "kind", ev.Kind,
		"environment", ev.TargetEnvironment, "capacity_id", capacity.ID)

	err = d.engine.Dispatch(capacity.ID, lifecycle.Command{
		Kind:      kind,
		TriggerID: ev.ID,
		At:        ev.Timestamp,
	})
	if err != nil {
		return "", err
	}
	return capacity.ID, nil
}

func (d *Dispatcher) report(ev Event, reason string) {
	d.log.Warn("trigger event dropped",
		"trigger_id", ev.ID, "kind", ev.Kind,
		"environment", ev.TargetEnvironment, "reason", reason)
}
