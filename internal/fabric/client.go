// Package fabric is the client for the capacity control API: the surface
// that turns a capacity's billable compute state on and off.
package fabric

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrActivation wraps failures of the activate call.
	ErrActivation = errors.New("capacity activation failed")

	// ErrDeactivation wraps failures of the deactivate call.
	ErrDeactivation = errors.New("capacity deactivation failed")
)

// Client talks to the capacity control API over REST.
// Both operations are idempotent on the server side: resuming an active
// capacity and suspending a paused one succeed as no-ops.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a capacity control client.
func New(baseURL string) *Client {
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Activate resumes a capacity's compute.
func (c *Client) Activate(ctx context.Context, capacityID string) error {
	if err := c.post(ctx, capacityID, "resume"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrActivation, capacityID, err)
	}
	return nil
}

// Deactivate suspends a capacity's compute to stop billing.
func (c *Client) Deactivate(ctx context.Context, capacityID string) error {
	if err := c.post(ctx, capacityID, "suspend"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeactivation, capacityID, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, capacityID, action string) error {
	url := fmt.Sprintf("%s/capacities/%s/%s", c.baseURL, capacityID, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		// already in the requested state
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, body)
	}
}
