// Package balance spreads candidate notifications across calendar days so no
// single day exceeds the configured cap, probing forward for spare capacity
// before giving up on a request.
package balance

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

// RescheduledNote is appended to the body of a request moved off its original
// day. The metadata flag carries the same fact in machine-readable form.
const (
	RescheduledNote        = " (rescheduled to balance notification load)"
	MetadataRescheduledKey = "rescheduled"
)

type Scheduler struct {
	settings *settings.Settings
}

func NewScheduler(s *settings.Settings) *Scheduler {
	return &Scheduler{settings: s}
}

// Balance admits, re-dates, or drops the candidates. It is a pure batch
// transform: persisted state is untouched and the input slice is not mutated.
// Urgent requests always bypass the daily cap.
func (s *Scheduler) Balance(candidates []*domain.ScheduleRequest) (*Result, []*domain.ScheduleRequest) {
	dailyCap := s.settings.DailyCap()
	lookahead := s.settings.LookaheadDays()

	sorted := make([]*domain.ScheduleRequest, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.Type < b.Type
	})

	result := &Result{TotalRequests: len(sorted)}
	admitted := make([]*domain.ScheduleRequest, 0, len(sorted))
	dayCounts := make(map[string]int)

	for _, req := range sorted {
		dayKey := req.ScheduledDayKey()

		if req.Priority == domain.PriorityUrgent {
			dayCounts[dayKey]++
			admitted = append(admitted, req)
			result.Scheduled++
			continue
		}

		if dayCounts[dayKey] < dailyCap {
			dayCounts[dayKey]++
			admitted = append(admitted, req)
			result.Scheduled++
			continue
		}

		rescheduled, ok := probeForward(req, dayCounts, dailyCap, lookahead)
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("no capacity for item %s (%s) within %d days of %s",
					req.ItemID, req.Type, lookahead, dayKey))
			continue
		}

		dayCounts[rescheduled.ScheduledDayKey()]++
		admitted = append(admitted, rescheduled)
		result.Scheduled++
		result.Rescheduled++
	}

	if result.Rescheduled > 0 || result.Failed > 0 {
		slog.Debug("load balance pass complete",
			slog.Int("total", result.TotalRequests),
			slog.Int("scheduled", result.Scheduled),
			slog.Int("rescheduled", result.Rescheduled),
			slog.Int("failed", result.Failed),
		)
	}

	return result, admitted
}

// probeForward searches day by day, up to lookahead days past the original
// date, for the first day with spare capacity. The returned copy keeps the
// original time of day and is annotated as rescheduled.
func probeForward(req *domain.ScheduleRequest, dayCounts map[string]int, dailyCap, lookahead int) (*domain.ScheduleRequest, bool) {
	for offset := 1; offset <= lookahead; offset++ {
		candidate := req.ScheduledDate.AddDate(0, 0, offset)
		if dayCounts[domain.DayKey(candidate)] < dailyCap {
			clone := req.WithDate(candidate)
			clone.Body += RescheduledNote
			if clone.Metadata == nil {
				clone.Metadata = make(map[string]string, 1)
			}
			clone.Metadata[MetadataRescheduledKey] = "true"
			clone.Metadata["original_date"] = req.ScheduledDate.Format(time.RFC3339)
			return clone, true
		}
	}
	return nil, false
}
