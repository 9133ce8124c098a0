// Package handlers contains HTTP handlers for the orchestrator API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"capplane/internal/history"
	"capplane/internal/inventory"
	"capplane/internal/lifecycle"
	"capplane/internal/trigger"
	"capplane/pkg/api"
)

// Registry is the inventory surface the handlers need.
type Registry interface {
	Capacity(id string) (inventory.Capacity, error)
	Capacities() []inventory.Capacity
	Workspace(id string) (inventory.Workspace, error)
	AssignWorkspace(ws inventory.Workspace) (inventory.AssignmentAudit, error)
}

// Engine routes commands to per-capacity controllers.
type Engine interface {
	Dispatch(capacityID string, cmd lifecycle.Command) error
	Abort(capacityID string) (bool, error)
	State(capacityID string) (lifecycle.State, time.Time, error)
}

// TriggerIntake normalizes and routes CI webhook events.
type TriggerIntake interface {
	CIMergeEvent(branch, status string, payload json.RawMessage) (trigger.Event, error)
	Dispatch(ev trigger.Event) (string, error)
}

// Reloader re-reads the inventory declaration document.
type Reloader interface {
	Reload(ctx context.Context) (api.ReloadResponse, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	registry Registry
	engine   Engine
	triggers TriggerIntake
	reloader Reloader
	recorder history.Recorder
}

// New creates a new Handlers instance.
func New(registry Registry, engine Engine, triggers TriggerIntake, reloader Reloader, recorder history.Recorder) *Handlers {
	return &Handlers{
		registry: registry,
		engine:   engine,
		triggers: triggers,
		reloader: reloader,
		recorder: recorder,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
