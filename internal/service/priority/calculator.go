package priority

import (
	"strings"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

const (
	// Monetary value thresholds for the base tier.
	urgentValueThreshold = 5000
	highValueThreshold   = 1000
	normalValueThreshold = 250

	// Items expiring within this many days get a closeness bump. Two weeks
	// keeps an item expiring in 10 days on the denser normal-tier ladder.
	expirationBumpDays = 14
)

// importantCategories get a one-tier bump regardless of value.
var importantCategories = map[string]struct{}{
	"electronics":       {},
	"appliances":        {},
	"tools":             {},
	"jewelry":           {},
	"art":               {},
	"medical equipment": {},
	"safety equipment":  {},
	"vehicle parts":     {},
}

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate maps item attributes to a priority tier. Pure and total: missing
// expiration data simply skips the closeness bump.
func (c *Calculator) Calculate(item *domain.Item, now time.Time) domain.Priority {
	tier := baseTier(item.Value)

	if isImportantCategory(item.Category) {
		tier = tier.Bump()
	}

	if days, ok := item.DaysUntilExpiration(now); ok && days <= expirationBumpDays {
		switch tier {
		case domain.PriorityNormal:
			tier = domain.PriorityHigh
		case domain.PriorityLow:
			tier = domain.PriorityNormal
		}
	}

	return tier
}

func baseTier(value float64) domain.Priority {
	switch {
	case value >= urgentValueThreshold:
		return domain.PriorityUrgent
	case value >= highValueThreshold:
		return domain.PriorityHigh
	case value >= normalValueThreshold:
		return domain.PriorityNormal
	default:
		return domain.PriorityLow
	}
}

func isImportantCategory(category string) bool {
	_, ok := importantCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}
