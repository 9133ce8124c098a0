package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"capplane/internal/inventory"
	"capplane/pkg/api"
)

func TestAssignWorkspace(t *testing.T) {
	reg := newMockRegistry()
	reg.workspaces["WS-AV01-DEV-Processing"] = inventory.Workspace{
		ID:          "WS-AV01-DEV-Processing",
		Environment: inventory.EnvDev,
		Content:     inventory.ContentProcessing,
		CapacityID:  "fcav01devengineering",
	}
	reg.assignAudit = inventory.AssignmentAudit{
		WorkspaceID: "WS-AV01-DEV-Processing",
		OldCapacity: "fcav01devengineering",
		NewCapacity: "fcav02devengineering",
		At:          time.Now().UTC(),
	}
	h := newTestHandlers(reg, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/workspaces/WS-AV01-DEV-Processing/assign",
		strings.NewReader(`{"capacity_id":"fcav02devengineering"}`))
	req.SetPathValue("id", "WS-AV01-DEV-Processing")
	rr := httptest.NewRecorder()
	h.AssignWorkspace(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if reg.assignedTo != "fcav02devengineering" {
		t.Errorf("registry asked to assign to %q, want fcav02devengineering", reg.assignedTo)
	}

	var resp api.AssignWorkspaceResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OldCapacity != "fcav01devengineering" {
		t.Errorf("got old capacity %q, want fcav01devengineering", resp.OldCapacity)
	}
	if resp.NewCapacity != "fcav02devengineering" {
		t.Errorf("got new capacity %q, want fcav02devengineering", resp.NewCapacity)
	}
}

func TestAssignWorkspace_UnknownWorkspace(t *testing.T) {
	h := newTestHandlers(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/workspaces/WS-AV01-DEV-Processing/assign",
		strings.NewReader(`{"capacity_id":"fcav01devengineering"}`))
	req.SetPathValue("id", "WS-AV01-DEV-Processing")
	rr := httptest.NewRecorder()
	h.AssignWorkspace(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rr.Code)
	}
}

func TestAssignWorkspace_UnknownCapacity(t *testing.T) {
	reg := newMockRegistry()
	reg.workspaces["WS-AV01-DEV-Processing"] = inventory.Workspace{
		ID:         "WS-AV01-DEV-Processing",
		CapacityID: "fcav01devengineering",
	}
	reg.assignErr = inventory.ErrUnknownCapacity
	h := newTestHandlers(reg, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/workspaces/WS-AV01-DEV-Processing/assign",
		strings.NewReader(`{"capacity_id":"fcav09devengineering"}`))
	req.SetPathValue("id", "WS-AV01-DEV-Processing")
	rr := httptest.NewRecorder()
	h.AssignWorkspace(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rr.Code)
	}
}

func TestAssignWorkspace_MissingCapacityID(t *testing.T) {
	reg := newMockRegistry()
	reg.workspaces["WS-AV01-DEV-Processing"] = inventory.Workspace{ID: "WS-AV01-DEV-Processing"}
	h := newTestHandlers(reg, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/workspaces/WS-AV01-DEV-Processing/assign",
		strings.NewReader(`{}`))
	req.SetPathValue("id", "WS-AV01-DEV-Processing")
	rr := httptest.NewRecorder()
	h.AssignWorkspace(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rr.Code)
	}
}
