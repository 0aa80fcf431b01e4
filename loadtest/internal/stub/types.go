package stub

import (
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// SeedRequest loads a batch of inventory items into the stub.
type SeedRequest struct {
	Items []SeedItem `json:"items"`
}

// SeedItem describes one item to seed. ExpiresInDays is relative so seed
// files stay valid regardless of when a test run starts.
type SeedItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Category      string  `json:"category"`
	ExpiresInDays *int    `json:"expires_in_days,omitempty"`
}

func (s SeedItem) toItem(now time.Time) *domain.Item {
	item := &domain.Item{
		ID:       s.ID,
		Name:     s.Name,
		Value:    s.Value,
		Category: s.Category,
	}
	if s.ExpiresInDays != nil {
		expires := now.AddDate(0, 0, *s.ExpiresInDays)
		item.ExpirationDate = &expires
	}
	return item
}

// StoredNotification is a notification the stub bridge accepted, kept for
// inspection by test drivers.
type StoredNotification struct {
	Payload    *domain.Payload `json:"payload"`
	Trigger    *domain.Trigger `json:"trigger"`
	ReceivedAt time.Time       `json:"received_at"`
}
