// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the orchestrator.
package api

import "time"

// TriggerCIRequest is the CI merge webhook payload.
type TriggerCIRequest struct {
	Branch string `json:"branch"`
	// Status must be "merged"; any other value is dropped.
	Status string `json:"status"`
}

// TriggerResponse is returned after a trigger is accepted.
type TriggerResponse struct {
	TriggerID  string `json:"trigger_id"`
	CapacityID string `json:"capacity_id"`
}

// ManualActionRequest records an operator action on a capacity.
type ManualActionRequest struct {
	// Action is "activate" or "deactivate".
	Action string `json:"action"`
}

// AbortResponse reports whether an in-flight run was aborted.
type AbortResponse struct {
	Aborted bool `json:"aborted"`
}

// CapacityResponse describes a capacity and its live lifecycle state.
type CapacityResponse struct {
	ID          string `json:"id"`
	Environment string `json:"environment"`
	Class       string `json:"workload_class"`
	Policy      string `json:"policy"`
	Schedule    string `json:"schedule,omitempty"`
	State       string `json:"state"`
}

// ListCapacitiesResponse is the response body for the capacity listing.
type ListCapacitiesResponse struct {
	Capacities []CapacityResponse `json:"capacities"`
}

// TransitionResponse represents a recorded lifecycle transition.
type TransitionResponse struct {
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Cause     string    `json:"cause"`
	At        time.Time `json:"at"`
}

// CapacityHistoryResponse is the response body for transition history queries.
type CapacityHistoryResponse struct {
	CapacityID  string               `json:"capacity_id"`
	Transitions []TransitionResponse `json:"transitions"`
}

// AssignWorkspaceRequest moves a workspace onto a capacity.
type AssignWorkspaceRequest struct {
	CapacityID string `json:"capacity_id"`
}

// AssignWorkspaceResponse reports the assignment, including the
// capacity the workspace was moved away from.
type AssignWorkspaceResponse struct {
	WorkspaceID string    `json:"workspace_id"`
	OldCapacity string    `json:"old_capacity,omitempty"`
	NewCapacity string    `json:"new_capacity"`
	At          time.Time `json:"at"`
}

// ReloadResponse reports the outcome of an inventory reload.
type ReloadResponse struct {
	Capacities int      `json:"capacities"`
	Workspaces int      `json:"workspaces"`
	Skipped    []string `json:"skipped,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
