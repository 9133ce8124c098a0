package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"capplane/pkg/api"
)

func TestReloadInventory(t *testing.T) {
	reloader := &mockReloader{
		resp: api.ReloadResponse{Capacities: 3, Workspaces: 7, Skipped: []string{"bad record"}},
	}
	h := newTestHandlers(nil, nil, nil, reloader)

	req := httptest.NewRequest(http.MethodPost, "/inventory/reload", nil)
	rr := httptest.NewRecorder()
	h.ReloadInventory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var resp api.ReloadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Capacities != 3 || resp.Workspaces != 7 {
		t.Errorf("got %d capacities / %d workspaces, want 3/7", resp.Capacities, resp.Workspaces)
	}
	if len(resp.Skipped) != 1 {
		t.Errorf("got %d skipped records, want 1", len(resp.Skipped))
	}
}

func TestReloadInventory_Failure(t *testing.T) {
	reloader := &mockReloader{err: errors.New("document unreadable")}
	h := newTestHandlers(nil, nil, nil, reloader)

	req := httptest.NewRequest(http.MethodPost, "/inventory/reload", nil)
	rr := httptest.NewRecorder()
	h.ReloadInventory(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rr.Code)
	}
}
