package lifecycle

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the lifecycle instruments. A nil *Metrics disables
// instrumentation, which the tests rely on.
type Metrics struct {
	transitions metric.Int64Counter
	escalations metric.Int64Counter
	runs        metric.Int64Counter
}

// NewMetrics registers the lifecycle instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("capplane-lifecycle")

	transitions, err := meter.Int64Counter("capplane.lifecycle.transitions",
		metric.WithDescription("State transitions taken by capacity controllers"))
	if err != nil {
		return nil, fmt.Errorf("register transitions counter: %w", err)
	}
	escalations, err := meter.Int64Counter("capplane.lifecycle.escalations",
		metric.WithDescription("Failures escalated to the operator channel"))
	if err != nil {
		return nil, fmt.Errorf("register escalations counter: %w", err)
	}
	runs, err := meter.Int64Counter("capplane.pipeline.runs",
		metric.WithDescription("Pipeline runs by terminal status"))
	if err != nil {
		return nil, fmt.Errorf("register runs counter: %w", err)
	}

	return &Metrics{transitions: transitions, escalations: escalations, runs: runs}, nil
}

func (m *Metrics) Transition(ctx context.Context, capacityID, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capacity_id", capacityID),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) Escalation(ctx context.Context, capacityID string) {
	m.escalations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capacity_id", capacityID),
	))
}

func (m *Metrics) RunFinished(ctx context.Context, capacityID, status string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capacity_id", capacityID),
		attribute.String("status", status),
	))
}
