package timing

import (
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// Recurrence expands an interval spec into a bounded sequence of future dates.
type Recurrence struct{}

func NewRecurrence() *Recurrence {
	return &Recurrence{}
}

// Expand returns up to maxOccurrences strictly increasing future dates starting
// from start. Dates at or before now are skipped but still consume the
// advancing cursor, so a stale start converges onto the future. The sequence
// stops early if the interval cannot advance the cursor.
func (r *Recurrence) Expand(start time.Time, interval domain.RecurrenceInterval, customDays, maxOccurrences int, now time.Time) []time.Time {
	if maxOccurrences <= 0 {
		return nil
	}

	dates := make([]time.Time, 0, maxOccurrences)
	cursor := start

	// Bounded walk: at most maxOccurrences future dates, and a hard cap on
	// total steps so a degenerate interval cannot loop forever.
	for steps := 0; len(dates) < maxOccurrences && steps < maxOccurrences*100; steps++ {
		next := advance(cursor, interval, customDays)
		if !next.After(cursor) {
			break
		}
		cursor = next
		if cursor.After(now) {
			dates = append(dates, cursor)
		}
	}

	return dates
}

// advance steps one interval forward, clamping calendar arithmetic at month
// boundaries (Jan 31 + 1 month lands on the last day of February).
func advance(t time.Time, interval domain.RecurrenceInterval, customDays int) time.Time {
	switch interval {
	case domain.RecurrenceWeekly:
		return t.AddDate(0, 0, 7)
	case domain.RecurrenceMonthly:
		return addMonthsClamped(t, 1)
	case domain.RecurrenceQuarterly:
		return addMonthsClamped(t, 3)
	case domain.RecurrenceSemiAnnually:
		return addMonthsClamped(t, 6)
	case domain.RecurrenceAnnually:
		return addMonthsClamped(t, 12)
	case domain.RecurrenceCustom:
		if customDays <= 0 {
			return t
		}
		return t.AddDate(0, 0, customDays)
	default:
		return t
	}
}

// addMonthsClamped adds months without the normalization overflow of AddDate:
// when the target month is shorter than the source day-of-month, the result is
// clamped to the target month's last day.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, hour, minute, second, t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, second, t.Nanosecond(), t.Location())
}
