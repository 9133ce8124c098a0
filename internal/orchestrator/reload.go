package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"capplane/internal/inventory"
	"capplane/pkg/api"
)

// ControllerSyncer reconciles lifecycle controllers against the registry.
type ControllerSyncer interface {
	Sync(reg *inventory.Registry)
}

// ScheduleLoader replaces the cron entries for scheduled capacities.
type ScheduleLoader interface {
	Load(capacities []inventory.Capacity) []error
}

// InventoryReloader re-reads the declaration document and propagates the
// new topology to the registry, the controllers and the scheduler.
type InventoryReloader struct {
	path      string
	registry  *inventory.Registry
	engine    ControllerSyncer
	scheduler ScheduleLoader
	log       *slog.Logger
}

// NewInventoryReloader creates a reloader for the document at path.
func NewInventoryReloader(
	path string,
	registry *inventory.Registry,
	engine ControllerSyncer,
	scheduler ScheduleLoader,
	log *slog.Logger,
) *InventoryReloader {
	return &InventoryReloader{
		path:      path,
		registry:  registry,
		engine:    engine,
		scheduler: scheduler,
		log:       log,
	}
}

// Reload re-reads the document. Malformed records are skipped and
// reported; an unreadable document leaves the running topology untouched.
func (r *InventoryReloader) Reload(ctx context.Context) (api.ReloadResponse, error) {
	doc, err := inventory.LoadDocument(r.path)
	if err != nil {
		return api.ReloadResponse{}, fmt.Errorf("load inventory document: %w", err)
	}

	next, buildErrs := inventory.Build(doc, r.log)
	r.registry.Replace(next)
	r.engine.Sync(r.registry)

	skipped := make([]string, 0, len(buildErrs))
	for _, e := range buildErrs {
		skipped = append(skipped, e.Error())
	}
	for _, e := range r.scheduler.Load(r.registry.Capacities()) {
		skipped = append(skipped, e.Error())
	}

	resp := api.ReloadResponse{
		Capacities: len(r.registry.Capacities()),
		Workspaces: len(r.registry.AllWorkspaces()),
		Skipped:    skipped,
	}
	r.log.Info("inventory reloaded",
		"capacities", resp.Capacities,
		"workspaces", resp.Workspaces,
		"skipped", len(skipped))
	return resp, nil
}
