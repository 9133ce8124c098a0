package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"capplane/internal/naming"
)

var (
	// ErrDuplicateResource is returned when a capacity registration
	// collides with an existing (version, environment, class) key.
	ErrDuplicateResource = errors.New("duplicate capacity resource")

	// ErrUnknownCapacity is returned when an assignment targets a
	// capacity that is not registered.
	ErrUnknownCapacity = errors.New("unknown capacity")

	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
)

// Registry is the validated, queryable snapshot of the declared topology.
// It holds no automation logic. Controllers read it concurrently; only
// administrative operations and reloads mutate it.
type Registry struct {
	mu         sync.RWMutex
	capacities map[string]Capacity    // by id
	byKey      map[CapacityKey]string // uniqueness index
	workspaces map[string]Workspace   // by id
	log        *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		capacities: make(map[string]Capacity),
		byKey:      make(map[CapacityKey]string),
		workspaces: make(map[string]Workspace),
		log:        log,
	}
}

// RegisterCapacity validates the capacity identifier and adds the capacity.
// Exactly one capacity may exist per (version, environment, class); a second
// registration for the same key fails with ErrDuplicateResource.
func (r *Registry) RegisterCapacity(c Capacity) error {
	id, err := naming.Parse(c.ID)
	if err != nil {
		return err
	}
	if !id.IsCapacity() {
		return fmt.Errorf("%w: %q is not a capacity identifier", naming.ErrInvalidIdentifier, c.ID)
	}
	c.Identifier = id

	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.Key()
	if existing, ok := r.byKey[key]; ok {
		return fmt.Errorf("%w: %s already registered as %s", ErrDuplicateResource, key, existing)
	}
	if _, ok := r.capacities[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, c.ID)
	}

	r.capacities[c.ID] = c
	r.byKey[key] = c.ID
	r.log.Info("capacity registered",
		"capacity_id", c.ID, "environment", c.Environment,
		"class", c.Class, "policy", c.Policy)
	return nil
}

// AssignWorkspace binds a workspace to a capacity. A prior assignment is
// overwritten, never silently: the returned audit record carries both the
// old and the new capacity id and the reassignment is logged.
func (r *Registry) AssignWorkspace(ws Workspace) (AssignmentAudit, error) {
	id, err := naming.Parse(ws.ID)
	if err != nil {
		return AssignmentAudit{}, err
	}
	ws.Identifier = id

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.capacities[ws.CapacityID]; !ok {
		return AssignmentAudit{}, fmt.Errorf("%w: %s", ErrUnknownCapacity, ws.CapacityID)
	}

	audit := AssignmentAudit{
		WorkspaceID: ws.ID,
		NewCapacity: ws.CapacityID,
		At:          time.Now().UTC(),
	}
	if prev, ok := r.workspaces[ws.ID]; ok {
		audit.OldCapacity = prev.CapacityID
	}
	r.workspaces[ws.ID] = ws

	if audit.OldCapacity != "" && audit.OldCapacity != audit.NewCapacity {
		r.log.Warn("workspace reassigned",
			"workspace_id", ws.ID,
			"old_capacity", audit.OldCapacity,
			"new_capacity", audit.NewCapacity)
	} else {
		r.log.Info("workspace assigned",
			"workspace_id", ws.ID, "capacity_id", ws.CapacityID)
	}
	return audit, nil
}

// Lookup finds the single capacity for an environment and workload class
// at the highest registered architecture version.
func (r *Registry) Lookup(env Environment, class WorkloadClass) (Capacity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestVersion := 0
	for key, id := range r.byKey {
		if key.Environment == env && key.Class == class && key.Version > bestVersion {
			best, bestVersion = id, key.Version
		}
	}
	if best == "" {
		return Capacity{}, fmt.Errorf("%w: no capacity for %s/%s", ErrNotFound, env, class)
	}
	return r.capacities[best], nil
}

// Capacity returns a capacity by id.
func (r *Registry) Capacity(id string) (Capacity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.capacities[id]
	if !ok {
		return Capacity{}, fmt.Errorf("%w: capacity %s", ErrNotFound, id)
	}
	return c, nil
}

// Capacities returns all registered capacities, ordered by id.
func (r *Registry) Capacities() []Capacity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capacity, 0, len(r.capacities))
	for _, c := range r.capacities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Workspaces returns the workspaces assigned to a capacity, ordered by id.
func (r *Registry) Workspaces(capacityID string) []Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Workspace
	for _, ws := range r.workspaces {
		if ws.CapacityID == capacityID {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllWorkspaces returns every registered workspace, ordered by id.
func (r *Registry) AllWorkspaces() []Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Replace swaps the registry contents for those of other. The receiver
// keeps its identity, so holders of the pointer see the new topology.
// Used by inventory reloads.
func (r *Registry) Replace(other *Registry) {
	other.mu.RLock()
	capacities := other.capacities
	byKey := other.byKey
	workspaces := other.workspaces
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.capacities = capacities
	r.byKey = byKey
	r.workspaces = workspaces
	r.log.Info("registry replaced",
		"capacities", len(capacities), "workspaces", len(workspaces))
}

// Workspace returns a workspace by id.
func (r *Registry) Workspace(id string) (Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return Workspace{}, fmt.Errorf("%w: workspace %s", ErrNotFound, id)
	}
	return ws, nil
}
