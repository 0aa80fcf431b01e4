// Package inventory pulls read-only item records from the inventory
// subsystem.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.ItemSource = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type itemsResponse struct {
	Items []*domain.Item `json:"items"`
	Count int            `json:"count"`
}

// GetItems fetches specific items by ID. Unknown IDs are simply absent from
// the response.
func (c *Client) GetItems(ctx context.Context, ids []string) ([]*domain.Item, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u.Path = "/api/v1/items"
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	u.RawQuery = q.Encode()

	return c.fetch(ctx, u.String())
}

// GetItemsExpiringWithin fetches items whose expiration falls inside the
// rolling window starting now.
func (c *Client) GetItemsExpiringWithin(ctx context.Context, window time.Duration) ([]*domain.Item, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	now := time.Now().UTC()
	u.Path = "/api/v1/items/expiring"
	q := u.Query()
	q.Set("start", now.Format(time.RFC3339))
	q.Set("end", now.Add(window).Format(time.RFC3339))
	u.RawQuery = q.Encode()

	return c.fetch(ctx, u.String())
}

func (c *Client) fetch(ctx context.Context, requestURL string) ([]*domain.Item, error) {
	slog.Debug("fetching items from inventory",
		slog.String("url", requestURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("failed to reach inventory service",
			slog.String("url", requestURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("unexpected status code from inventory service",
			slog.String("url", requestURL),
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var itemsResp itemsResponse
	if err := json.Unmarshal(body, &itemsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Debug("fetched items from inventory",
		slog.Int("count", len(itemsResp.Items)),
	)

	return itemsResp.Items, nil
}
