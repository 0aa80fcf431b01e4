// Package dispatch hands finalized notifications to the platform's
// local-notification delivery bridge. The bridge owns actual delivery and
// reports delivery/interaction events back asynchronously.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/casavault/reminder-engine/internal/domain"
)

type BridgeClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ domain.Dispatcher = (*BridgeClient)(nil)

func NewBridgeClient(baseURL string, ratePerSecond int) *BridgeClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	return &BridgeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

type submitRequest struct {
	Payload *domain.Payload `json:"payload"`
	Trigger *domain.Trigger `json:"trigger"`
}

// Submit posts one notification to the bridge. Submissions are rate limited
// so a large batch cannot flood the OS notification center.
func (c *BridgeClient) Submit(ctx context.Context, payload *domain.Payload, trigger *domain.Trigger) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(submitRequest{Payload: payload, Trigger: trigger})
	if err != nil {
		return fmt.Errorf("failed to marshal submit request: %w", err)
	}

	url := c.baseURL + "/api/v1/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		slog.Debug("submitted notification to bridge",
			slog.String("identifier", payload.Identifier),
			slog.Time("trigger", trigger.Date),
		)
		return nil
	case http.StatusForbidden, http.StatusUnauthorized:
		return domain.ErrAuthorizationDenied
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// Cancel removes a pending notification from the bridge, used when a request
// is replaced or snoozed. A missing identifier is not an error.
func (c *BridgeClient) Cancel(ctx context.Context, identifier string) error {
	url := fmt.Sprintf("%s/api/v1/notifications/%s", c.baseURL, identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
