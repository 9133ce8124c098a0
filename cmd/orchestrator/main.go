// Package main is the entry point for the capplane orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capplane/internal/config"
	"capplane/internal/fabric"
	"capplane/internal/history"
	historypg "capplane/internal/history/postgres"
	"capplane/internal/inventory"
	"capplane/internal/lifecycle"
	"capplane/internal/logger"
	"capplane/internal/observability"
	"capplane/internal/orchestrator"
	"capplane/internal/orchestrator/handlers"
	"capplane/internal/pipeline"
	"capplane/internal/trigger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// History store: postgres when configured, in-memory otherwise
	var recorder history.Recorder
	if cfg.DatabaseURL != "" {
		store, err := historypg.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer store.Close()

		if *migrateFlag {
			log.Println("Running database migrations...")
			if err := historypg.Migrate(store.DB()); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
			log.Println("Migrations completed successfully")
		}
		recorder = store
	} else {
		slogger.Warn("no database configured, lifecycle history is kept in memory only")
		recorder = history.NewMemoryRecorder()
	}

	// Tracing
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "capplane-orchestrator", cfg.OTELEndpoint)
		if err != nil {
			log.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Printf("Failed to shutdown tracer: %v", err)
			}
		}()
	}

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	lifecycleMetrics, err := lifecycle.NewMetrics()
	if err != nil {
		log.Fatalf("Failed to init lifecycle metrics: %v", err)
	}

	// Inventory
	doc, err := inventory.LoadDocument(cfg.InventoryPath)
	if err != nil {
		log.Fatalf("Failed to load inventory document: %v", err)
	}
	registry, buildErrs := inventory.Build(doc, slogger)
	for _, e := range buildErrs {
		slogger.Warn("inventory record skipped", "error", e)
	}

	// Lifecycle engine, one controller per capacity
	activator := fabric.New(cfg.CapacityAPIURL)
	runs := pipeline.New(cfg.PipelineURL, pipeline.Config{
		PollInterval: cfg.Run.PollInterval.Std(),
		MaxWait:      cfg.Run.MaxWait.Std(),
	}, slogger)
	retry := lifecycle.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		BaseInterval: cfg.Retry.BaseInterval.Std(),
		MaxInterval:  cfg.Retry.MaxInterval.Std(),
	}
	engine := lifecycle.NewEngine(activator, runs, recorder, lifecycleMetrics, retry, slogger)
	engine.Start(ctx, registry)

	// Trigger routing: CI webhooks and cron schedules
	branches := make(map[string]inventory.Environment, len(cfg.Branches))
	for branch, env := range cfg.Branches {
		e, err := inventory.AsEnvironment(env)
		if err != nil {
			slogger.Warn("ignoring branch mapping", "branch", branch, "error", err)
			continue
		}
		branches[branch] = e
	}
	dispatcher := trigger.NewDispatcher(registry, engine, branches, slogger)

	scheduler := trigger.NewScheduler(dispatcher, slogger)
	for _, e := range scheduler.Load(registry.Capacities()) {
		slogger.Warn("schedule skipped", "error", e)
	}
	defer scheduler.Stop()

	// Observable gauge: how many capacities are currently not Paused
	meter := otel.Meter("capplane-orchestrator")
	_, err = meter.Int64ObservableGauge("capplane.capacities.active",
		metric.WithDescription("Number of capacities not in the Paused state"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			obs.Observe(engine.ActiveCount())
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register active capacity metric: %v", err)
	}

	// Start Server
	reloader := orchestrator.NewInventoryReloader(cfg.InventoryPath, registry, engine, scheduler, slogger)
	h := handlers.New(registry, engine, dispatcher, reloader, recorder)
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := orchestrator.New(addr, h, metricsHandler)

	go func() {
		log.Printf("Capplane Orchestrator starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down orchestrator...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	cancel()
	engine.Wait()
	log.Println("Server exited properly")
}
