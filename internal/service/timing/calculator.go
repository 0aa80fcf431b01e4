// Package timing turns item facts into concrete candidate notification dates.
package timing

import (
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

// offsetsByTier lists days-before-expiration offsets per priority tier,
// farthest first. Higher tiers get denser schedules.
var offsetsByTier = map[domain.Priority][]int{
	domain.PriorityUrgent: {90, 60, 30, 14, 7, 3, 1},
	domain.PriorityHigh:   {60, 30, 14, 7, 1},
	domain.PriorityNormal: {30, 7, 1},
	domain.PriorityLow:    {30, 1},
}

type Calculator struct {
	settings *settings.Settings
}

func NewCalculator(s *settings.Settings) *Calculator {
	return &Calculator{settings: s}
}

// CandidateDates computes the ascending list of future notification dates for
// an item. No expiration, or an expiration already past, yields nil. Pure and
// total; the only inputs besides the item are now and the shared settings.
func (c *Calculator) CandidateDates(item *domain.Item, tier domain.Priority, now time.Time) []time.Time {
	if item.ExpirationDate == nil || !item.ExpirationDate.After(now) {
		return nil
	}

	offsets := offsetsByTier[tier]
	if offsets == nil {
		offsets = offsetsByTier[domain.PriorityLow]
	}

	hour := c.settings.OptimalHour()
	allowWeekends := c.settings.WeekendEnabled()

	dates := make([]time.Time, 0, len(offsets))
	for _, offset := range offsets {
		base := item.ExpirationDate.AddDate(0, 0, -offset)
		if !allowWeekends {
			base = shiftOffWeekend(base)
		}
		candidate := pinHour(base, hour)
		if candidate.After(now) {
			dates = append(dates, candidate)
		}
	}

	return dates
}

// shiftOffWeekend moves weekend dates forward to the following business day.
func shiftOffWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	default:
		return t
	}
}

func pinHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
