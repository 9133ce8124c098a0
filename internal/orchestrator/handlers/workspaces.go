package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"capplane/internal/inventory"
	"capplane/pkg/api"
)

// AssignWorkspace handles POST /workspaces/{id}/assign.
// It moves an existing workspace onto another capacity. The response
// carries the capacity the workspace was assigned to before, so a
// reassignment is never silent.
func (h *Handlers) AssignWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Workspace(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Workspace not found", http.StatusNotFound)
		return
	}

	var req api.AssignWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CapacityID == "" {
		h.httpError(w, "capacity_id is required", http.StatusBadRequest)
		return
	}

	ws.CapacityID = req.CapacityID
	audit, err := h.registry.AssignWorkspace(ws)
	if err != nil {
		if errors.Is(err, inventory.ErrUnknownCapacity) {
			h.httpError(w, "Target capacity not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to assign workspace", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.AssignWorkspaceResponse{
		WorkspaceID: audit.WorkspaceID,
		OldCapacity: audit.OldCapacity,
		NewCapacity: audit.NewCapacity,
		At:          audit.At,
	})
}
