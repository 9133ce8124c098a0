// Package pipeline coordinates remote pipeline runs: it starts them on the
// Pipeline Execution Service, polls them to a terminal status, and cancels
// them when a run overstays its welcome.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrDispatch wraps failures to reach the Pipeline Execution Service.
var ErrDispatch = errors.New("pipeline dispatch failed")

// Status is the lifecycle status of a pipeline run.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusTimedOut  Status = "TimedOut"
	StatusCancelled Status = "Cancelled"
)

// Terminal reports whether the status is final. A run is immutable once
// it reaches a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// Handle identifies one run invocation against one capacity.
type Handle struct {
	RunID      string
	CapacityID string
	TriggerID  uuid.UUID
	StartedAt  time.Time
}

// Config holds the coordinator's polling bounds.
type Config struct {
	// PollInterval is the delay between status polls.
	PollInterval time.Duration

	// MaxWait bounds the total time a run may take before it is marked
	// TimedOut and cancelled.
	MaxWait time.Duration
}

// Coordinator invokes and tracks runs on the Pipeline Execution Service.
type Coordinator struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	log        *slog.Logger
}

// New creates a coordinator for the service at baseURL.
func New(baseURL string, config Config, log *slog.Logger) *Coordinator {
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 15 * time.Second
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 2 * time.Hour
	}
	return &Coordinator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		config: config,
		log:    log,
	}
}

type startRequest struct {
	CapacityID string `json:"capacityId"`
}

type startResponse struct {
	RunID string `json:"runId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Start invokes a new run for the capacity. An unreachable service or a
// non-2xx answer fails with ErrDispatch; the caller retries and escalates
// exactly as it would an activation failure.
func (c *Coordinator) Start(ctx context.Context, capacityID string, triggerID uuid.UUID) (Handle, error) {
	body, _ := json.Marshal(startRequest{CapacityID: capacityID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Handle{}, fmt.Errorf("%w: api returned status %d: %s", ErrDispatch, resp.StatusCode, payload)
	}

	var started startResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return Handle{}, fmt.Errorf("%w: decode response: %v", ErrDispatch, err)
	}
	if started.RunID == "" {
		return Handle{}, fmt.Errorf("%w: service returned no run id", ErrDispatch)
	}

	return Handle{
		RunID:      started.RunID,
		CapacityID: capacityID,
		TriggerID:  triggerID,
		StartedAt:  time.Now().UTC(),
	}, nil
}

// Poll fetches the run's current status.
func (c *Coordinator) Poll(ctx context.Context, h Handle) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runs/"+h.RunID, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", err
	}
	return Status(status.Status), nil
}

// Cancel asks the service to abort the run. Best effort: the capacity is
// deactivated afterwards either way, so a failed cancel is logged and the
// run is still treated as finished.
func (c *Coordinator) Cancel(ctx context.Context, h Handle) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs/"+h.RunID+"/cancel", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return nil
}

// Await polls the run until it reaches a terminal status.
//
// The poll interval and total wait are bounded: exceeding MaxWait marks the
// run TimedOut and triggers a best-effort Cancel. Cancelling the context
// (operator abort) likewise cancels the run and returns Cancelled, so the
// caller always gets a terminal status to deactivate on.
func (c *Coordinator) Await(ctx context.Context, h Handle) Status {
	deadline := h.StartedAt.Add(c.config.MaxWait)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.cancelBestEffort(h)
			return StatusCancelled

		case <-ticker.C:
			if time.Now().After(deadline) {
				c.log.Warn("pipeline run exceeded max wait",
					"run_id", h.RunID, "capacity_id", h.CapacityID, "max_wait", c.config.MaxWait)
				c.cancelBestEffort(h)
				return StatusTimedOut
			}

			status, err := c.Poll(ctx, h)
			if err != nil {
				// transient poll failures ride on the max-wait bound
				c.log.Warn("pipeline poll failed", "run_id", h.RunID, "error", err)
				continue
			}
			if status.Terminal() {
				return status
			}
		}
	}
}

func (c *Coordinator) cancelBestEffort(h Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Cancel(ctx, h); err != nil {
		c.log.Warn("pipeline cancel failed", "run_id", h.RunID, "error", err)
	}
}
