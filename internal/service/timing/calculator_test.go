package timing

import (
	"testing"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

func itemExpiring(at time.Time) *domain.Item {
	return &domain.Item{ID: "item-1", Name: "Laptop", Value: 1200, Category: "electronics", ExpirationDate: &at}
}

func TestCandidateDatesPerTier(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	// A Wednesday far enough out that every offset lands in the future and no
	// two offsets collapse onto the same day after weekend shifting.
	expiration := time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		tier domain.Priority
		want int
	}{
		{domain.PriorityUrgent, 7},
		{domain.PriorityHigh, 5},
		{domain.PriorityNormal, 3},
		{domain.PriorityLow, 2},
	}

	calc := NewCalculator(settings.New())
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			dates := calc.CandidateDates(itemExpiring(expiration), tt.tier, now)
			if len(dates) != tt.want {
				t.Fatalf("got %d candidate dates, want %d", len(dates), tt.want)
			}
			for i := 1; i < len(dates); i++ {
				if !dates[i].After(dates[i-1]) {
					t.Errorf("dates not strictly ascending: %v then %v", dates[i-1], dates[i])
				}
			}
			for _, d := range dates {
				if !d.After(now) {
					t.Errorf("candidate date %v is not in the future", d)
				}
			}
		})
	}
}

func TestCandidateDatesNoExpiration(t *testing.T) {
	calc := NewCalculator(settings.New())
	now := time.Now()

	if dates := calc.CandidateDates(&domain.Item{ID: "x", Name: "Mug"}, domain.PriorityNormal, now); dates != nil {
		t.Errorf("expected nil for item without expiration, got %v", dates)
	}

	past := now.AddDate(0, 0, -1)
	if dates := calc.CandidateDates(itemExpiring(past), domain.PriorityNormal, now); dates != nil {
		t.Errorf("expected nil for already expired item, got %v", dates)
	}
}

func TestCandidateDatesPinsOptimalHour(t *testing.T) {
	s := settings.New()
	snap := s.Snapshot()
	snap.OptimalHour = 14
	s.Replace(snap)

	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	calc := NewCalculator(s)

	dates := calc.CandidateDates(itemExpiring(now.AddDate(0, 0, 120)), domain.PriorityNormal, now)
	for _, d := range dates {
		if d.Hour() != 14 {
			t.Errorf("date %v not pinned to hour 14", d)
		}
	}
}

func TestCandidateDatesWeekendShift(t *testing.T) {
	// 2026-01-31 is a Saturday; the 30-day offset lands on Thursday 2026-01-01,
	// the 1-day offset lands on Friday 2026-01-30, and the 7-day offset lands
	// on Saturday 2026-01-24.
	expiration := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("weekends disabled shifts to monday", func(t *testing.T) {
		calc := NewCalculator(settings.New())
		dates := calc.CandidateDates(itemExpiring(expiration), domain.PriorityNormal, now)
		for _, d := range dates {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				t.Errorf("date %v falls on a weekend with weekend notifications disabled", d)
			}
		}
	})

	t.Run("weekends enabled keeps saturday", func(t *testing.T) {
		s := settings.New()
		snap := s.Snapshot()
		snap.WeekendEnabled = true
		s.Replace(snap)

		calc := NewCalculator(s)
		dates := calc.CandidateDates(itemExpiring(expiration), domain.PriorityNormal, now)
		foundWeekend := false
		for _, d := range dates {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				foundWeekend = true
			}
		}
		if !foundWeekend {
			t.Error("expected at least one weekend date with weekend notifications enabled")
		}
	})
}

func TestCandidateDatesTenDaysOutKeepsTwo(t *testing.T) {
	// Expiring in 10 days on the normal ladder: the 30-day offset is already
	// past, leaving the 7-day and 1-day candidates.
	now := time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC)
	expiration := now.AddDate(0, 0, 10)

	calc := NewCalculator(settings.New())
	dates := calc.CandidateDates(itemExpiring(expiration), domain.PriorityNormal, now)
	if len(dates) != 2 {
		t.Fatalf("got %d dates, want 2 (7-before and 1-before)", len(dates))
	}
	for _, d := range dates {
		if !d.After(now) || !d.Before(expiration) {
			t.Errorf("candidate %v outside (now, expiration)", d)
		}
	}
}

func TestCandidateDatesDiscardsPastOffsets(t *testing.T) {
	// Expiring in 5 days: the 30-day and 7-day offsets are already past.
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	expiration := now.AddDate(0, 0, 5)

	calc := NewCalculator(settings.New())
	dates := calc.CandidateDates(itemExpiring(expiration), domain.PriorityNormal, now)
	if len(dates) != 1 {
		t.Fatalf("got %d dates, want 1 (only the 1-day offset remains)", len(dates))
	}
}
