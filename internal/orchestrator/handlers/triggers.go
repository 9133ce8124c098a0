package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"capplane/internal/trigger"
	"capplane/pkg/api"
)

// TriggerCI handles POST /triggers/ci.
// It accepts the CI merge webhook and routes it to the matching
// engineering capacity. Dropped events are reported, not swallowed.
func (h *Handlers) TriggerCI(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.httpError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req api.TriggerCIRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Branch == "" || req.Status == "" {
		h.httpError(w, "Branch and Status are required", http.StatusBadRequest)
		return
	}

	ev, err := h.triggers.CIMergeEvent(req.Branch, req.Status, raw)
	if err != nil {
		if errors.Is(err, trigger.ErrDropped) {
			h.httpError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.httpError(w, "Failed to normalize event", http.StatusInternalServerError)
		return
	}

	capacityID, err := h.triggers.Dispatch(ev)
	if err != nil {
		if errors.Is(err, trigger.ErrDropped) {
			h.httpError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.httpError(w, "Failed to dispatch trigger", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.TriggerResponse{
		TriggerID:  ev.ID.String(),
		CapacityID: capacityID,
	})
}
