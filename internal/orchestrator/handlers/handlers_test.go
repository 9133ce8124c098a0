package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"capplane/internal/inventory"
	"capplane/internal/lifecycle"
	"capplane/internal/trigger"
	"capplane/pkg/api"
)

// Mock registry
type mockRegistry struct {
	capacities map[string]inventory.Capacity
	workspaces map[string]inventory.Workspace

	assignAudit inventory.AssignmentAudit
	assignErr   error
	assignedTo  string
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		capacities: make(map[string]inventory.Capacity),
		workspaces: make(map[string]inventory.Workspace),
	}
}

func (m *mockRegistry) Capacity(id string) (inventory.Capacity, error) {
	c, ok := m.capacities[id]
	if !ok {
		return inventory.Capacity{}, fmt.Errorf("%w: capacity %s", inventory.ErrNotFound, id)
	}
	return c, nil
}

func (m *mockRegistry) Capacities() []inventory.Capacity {
	out := make([]inventory.Capacity, 0, len(m.capacities))
	for _, c := range m.capacities {
		out = append(out, c)
	}
	return out
}

func (m *mockRegistry) Workspace(id string) (inventory.Workspace, error) {
	ws, ok := m.workspaces[id]
	if !ok {
		return inventory.Workspace{}, fmt.Errorf("%w: workspace %s", inventory.ErrNotFound, id)
	}
	return ws, nil
}

func (m *mockRegistry) AssignWorkspace(ws inventory.Workspace) (inventory.AssignmentAudit, error) {
	m.assignedTo = ws.CapacityID
	return m.assignAudit, m.assignErr
}

// Mock engine
type mockEngine struct {
	dispatched  []lifecycle.Command
	dispatchErr error

	abortResp bool
	abortErr  error

	states   map[string]lifecycle.State
	stateErr error
}

func (m *mockEngine) Dispatch(capacityID string, cmd lifecycle.Command) error {
	if m.dispatchErr != nil {
		return m.dispatchErr
	}
	m.dispatched = append(m.dispatched, cmd)
	return nil
}

func (m *mockEngine) Abort(capacityID string) (bool, error) {
	return m.abortResp, m.abortErr
}

func (m *mockEngine) State(capacityID string) (lifecycle.State, time.Time, error) {
	if m.stateErr != nil {
		return "", time.Time{}, m.stateErr
	}
	return m.states[capacityID], time.Now().UTC(), nil
}

// Mock trigger intake
type mockTriggers struct {
	event    trigger.Event
	eventErr error

	capacityID  string
	dispatchErr error

	capturedBranch string
	capturedStatus string
}

func (m *mockTriggers) CIMergeEvent(branch, status string, payload json.RawMessage) (trigger.Event, error) {
	m.capturedBranch = branch
	m.capturedStatus = status
	return m.event, m.eventErr
}

func (m *mockTriggers) Dispatch(ev trigger.Event) (string, error) {
	return m.capacityID, m.dispatchErr
}

// Mock reloader
type mockReloader struct {
	resp api.ReloadResponse
	err  error
}

func (m *mockReloader) Reload(ctx context.Context) (api.ReloadResponse, error) {
	return m.resp, m.err
}
