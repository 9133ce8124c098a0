package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"capplane/internal/inventory"
	"capplane/internal/lifecycle"
	"capplane/pkg/api"

	"github.com/google/uuid"
)

// ListCapacities handles GET /capacities.
func (h *Handlers) ListCapacities(w http.ResponseWriter, r *http.Request) {
	capacities := h.registry.Capacities()

	resp := api.ListCapacitiesResponse{Capacities: make([]api.CapacityResponse, 0, len(capacities))}
	for _, c := range capacities {
		resp.Capacities = append(resp.Capacities, h.capacityResponse(c))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetCapacity handles GET /capacities/{id}.
func (h *Handlers) GetCapacity(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Capacity(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Capacity not found", http.StatusNotFound)
		return
	}
	h.respondJson(w, http.StatusOK, h.capacityResponse(c))
}

// GetCapacityHistory handles GET /capacities/{id}/history.
func (h *Handlers) GetCapacityHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.registry.Capacity(id); err != nil {
		h.httpError(w, "Capacity not found", http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.httpError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.recorder.Transitions(r.Context(), id, limit)
	if err != nil {
		h.httpError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	resp := api.CapacityHistoryResponse{
		CapacityID:  id,
		Transitions: make([]api.TransitionResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Transitions = append(resp.Transitions, api.TransitionResponse{
			FromState: rec.FromState,
			ToState:   rec.ToState,
			Cause:     rec.Cause,
			At:        rec.At,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}

// ManualAction handles POST /capacities/{id}/actions.
// It records an operator-driven activation or deactivation.
func (h *Handlers) ManualAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.registry.Capacity(id); err != nil {
		h.httpError(w, "Capacity not found", http.StatusNotFound)
		return
	}

	var req api.ManualActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var kind lifecycle.CommandKind
	switch req.Action {
	case "activate":
		kind = lifecycle.CommandManualActivate
	case "deactivate":
		kind = lifecycle.CommandManualDeactivate
	default:
		h.httpError(w, "Action must be activate or deactivate", http.StatusBadRequest)
		return
	}

	err := h.engine.Dispatch(id, lifecycle.Command{
		Kind:      kind,
		TriggerID: uuid.New(),
		At:        time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			h.httpError(w, "Capacity has no controller", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to queue action", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusAccepted, nil)
}

// AbortRun handles POST /capacities/{id}/abort.
// It cancels the in-flight pipeline run, if any.
func (h *Handlers) AbortRun(w http.ResponseWriter, r *http.Request) {
	aborted, err := h.engine.Abort(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Capacity not found", http.StatusNotFound)
		return
	}
	h.respondJson(w, http.StatusOK, api.AbortResponse{Aborted: aborted})
}

func (h *Handlers) capacityResponse(c inventory.Capacity) api.CapacityResponse {
	resp := api.CapacityResponse{
		ID:          c.ID,
		Environment: string(c.Environment),
		Class:       string(c.Class),
		Policy:      string(c.Policy),
		Schedule:    c.Schedule,
	}
	if state, _, err := h.engine.State(c.ID); err == nil {
		resp.State = string(state)
	}
	return resp
}
