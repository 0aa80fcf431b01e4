package domain

import "time"

// Item is a tracked inventory item supplied by the inventory subsystem.
// Read-only to this service.
type Item struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Value          float64    `json:"value"`
	Category       string     `json:"category"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// DaysUntilExpiration returns the whole days between now and the item's
// expiration, and false if the item has no expiration date.
func (i *Item) DaysUntilExpiration(now time.Time) (int, bool) {
	if i.ExpirationDate == nil {
		return 0, false
	}
	return int(i.ExpirationDate.Sub(now).Hours() / 24), true
}
