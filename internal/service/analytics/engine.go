// Package analytics records delivery and interaction events and derives the
// effectiveness metrics that feed back into scheduling via shared settings.
package analytics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

const (
	historyLimit = 1000
	timingLimit  = 500
	snoozeLimit  = 200

	defaultOptimalHour = 9
)

type historyRecord struct {
	ID            string
	Type          domain.ReminderType
	ScheduledTime time.Time
	DeliveredAt   *time.Time
}

type timingSample struct {
	ID           string
	Type         domain.ReminderType
	Action       domain.InteractionAction
	Hour         int
	Weekday      time.Weekday
	ResponseTime time.Duration
}

type snoozeRecord struct {
	ID          string
	Type        domain.ReminderType
	Duration    time.Duration
	SnoozeCount int
}

// Engine is safe for concurrent use. All derived values are recomputed on
// demand from the bounded in-memory records; nothing here is persisted as-is.
type Engine struct {
	mu       sync.Mutex
	settings *settings.Settings

	scheduledByType map[domain.ReminderType]int
	typeByID        map[string]domain.ReminderType

	history *ring[historyRecord]
	timing  *ring[timingSample]
	snoozes *ring[snoozeRecord]
}

func NewEngine(s *settings.Settings) *Engine {
	return &Engine{
		settings:        s,
		scheduledByType: make(map[domain.ReminderType]int),
		typeByID:        make(map[string]domain.ReminderType),
		history:         newRing[historyRecord](historyLimit),
		timing:          newRing[timingSample](timingLimit),
		snoozes:         newRing[snoozeRecord](snoozeLimit),
	}
}

// RecordScheduled notes an admitted request so delivery rates have a
// denominator.
func (e *Engine) RecordScheduled(id string, reminderType domain.ReminderType) {
	if !e.settings.AnalyticsEnabled() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduledByType[reminderType]++
	e.typeByID[id] = reminderType
}

// RecordDelivered notes that the bridge fired a notification.
func (e *Engine) RecordDelivered(id string, reminderType domain.ReminderType, scheduledTime time.Time) {
	if !e.settings.AnalyticsEnabled() {
		return
	}
	now := time.Now().UTC()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typeByID[id] = reminderType
	e.history.push(historyRecord{
		ID:            id,
		Type:          reminderType,
		ScheduledTime: scheduledTime,
		DeliveredAt:   &now,
	})
}

// RecordInteraction notes how the user responded. A zero responseTime means
// the bridge did not report one.
func (e *Engine) RecordInteraction(id string, action domain.InteractionAction, responseTime time.Duration) {
	if !e.settings.AnalyticsEnabled() {
		return
	}
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timing.push(timingSample{
		ID:           id,
		Type:         e.typeByID[id],
		Action:       action,
		Hour:         now.Hour(),
		Weekday:      now.Weekday(),
		ResponseTime: responseTime,
	})
}

// RecordSnoozed notes a snooze so repeated deferrals show up per type.
func (e *Engine) RecordSnoozed(id string, duration time.Duration, snoozeCount int) {
	if !e.settings.AnalyticsEnabled() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snoozes.push(snoozeRecord{
		ID:          id,
		Type:        e.typeByID[id],
		Duration:    duration,
		SnoozeCount: snoozeCount,
	})
}

// Generate derives the current analytics snapshot.
func (e *Engine) Generate() *domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &domain.Snapshot{
		InteractionRates: make(map[domain.ReminderType]float64),
		SnoozePatterns:   make(map[domain.ReminderType]domain.SnoozeStats),
		GeneratedAt:      time.Now().UTC(),
	}

	for _, count := range e.scheduledByType {
		snap.TotalScheduled += count
	}
	snap.TotalDelivered = e.history.len()
	snap.TotalInteracted = e.timing.len()

	// Mean response time over interacted, non-ignored samples.
	var respTotal time.Duration
	respCount := 0
	hourCounts := make(map[int]int)
	interactedByType := make(map[domain.ReminderType]int)
	deliveredByType := make(map[domain.ReminderType]int)

	for _, h := range e.history.items() {
		deliveredByType[h.Type]++
	}
	for _, s := range e.timing.items() {
		if s.Action != domain.ActionIgnored {
			if s.ResponseTime > 0 {
				respTotal += s.ResponseTime
				respCount++
			}
			hourCounts[s.Hour]++
			interactedByType[s.Type]++
		}
	}
	if respCount > 0 {
		snap.AvgResponseTime = respTotal / time.Duration(respCount)
	}

	if best, worst, ok := bestAndWorstHours(hourCounts); ok {
		snap.MostEffectiveHour = &best
		snap.LeastEffectiveHour = &worst
	}

	for reminderType, delivered := range deliveredByType {
		if delivered > 0 {
			snap.InteractionRates[reminderType] = float64(interactedByType[reminderType]) / float64(delivered)
		}
	}

	snoozeTotals := make(map[domain.ReminderType]time.Duration)
	snoozeCounts := make(map[domain.ReminderType]int)
	for _, s := range e.snoozes.items() {
		snoozeTotals[s.Type] += s.Duration
		snoozeCounts[s.Type]++
	}
	for reminderType, count := range snoozeCounts {
		snap.SnoozePatterns[reminderType] = domain.SnoozeStats{
			Count:       count,
			AvgDuration: snoozeTotals[reminderType] / time.Duration(count),
		}
	}

	return snap
}

// OptimalTiming returns the (hour, weekday) with the highest interaction
// count, defaulting to 9:00 on Tuesday when no data exists.
func (e *Engine) OptimalTiming() domain.OptimalTiming {
	e.mu.Lock()
	defer e.mu.Unlock()

	type slot struct {
		hour    int
		weekday time.Weekday
	}
	counts := make(map[slot]int)
	for _, s := range e.timing.items() {
		if s.Action == domain.ActionIgnored {
			continue
		}
		counts[slot{s.Hour, s.Weekday}]++
	}

	best := slot{defaultOptimalHour, time.Tuesday}
	bestCount := 0
	for sl, count := range counts {
		switch {
		case count > bestCount:
			best = sl
			bestCount = count
		case count == bestCount && bestCount > 0:
			// Deterministic tie-break: earliest hour, then earliest weekday.
			if sl.hour < best.hour || (sl.hour == best.hour && sl.weekday < best.weekday) {
				best = sl
			}
		}
	}

	return domain.OptimalTiming{Hour: best.hour, Weekday: best.weekday}
}

// EffectivenessReport scores each reminder type seen so far.
func (e *Engine) EffectivenessReport() []domain.TypeEffectiveness {
	e.mu.Lock()
	defer e.mu.Unlock()

	deliveredByType := make(map[domain.ReminderType]int)
	for _, h := range e.history.items() {
		deliveredByType[h.Type]++
	}

	interactedByType := make(map[domain.ReminderType]int)
	respTotals := make(map[domain.ReminderType]time.Duration)
	respCounts := make(map[domain.ReminderType]int)
	for _, s := range e.timing.items() {
		if s.Action == domain.ActionIgnored {
			continue
		}
		interactedByType[s.Type]++
		if s.ResponseTime > 0 {
			respTotals[s.Type] += s.ResponseTime
			respCounts[s.Type]++
		}
	}

	report := make([]domain.TypeEffectiveness, 0, len(e.scheduledByType))
	for _, reminderType := range domain.ReminderTypes() {
		scheduled := e.scheduledByType[reminderType]
		delivered := deliveredByType[reminderType]
		if scheduled == 0 && delivered == 0 {
			continue
		}

		entry := domain.TypeEffectiveness{
			Type:           reminderType,
			TotalScheduled: scheduled,
			TotalDelivered: delivered,
		}
		if scheduled > 0 {
			entry.DeliveryRate = float64(delivered) / float64(scheduled)
		}
		if delivered > 0 {
			entry.InteractionRate = float64(interactedByType[reminderType]) / float64(delivered)
		}
		if respCounts[reminderType] > 0 {
			entry.AvgResponseTime = respTotals[reminderType] / time.Duration(respCounts[reminderType])
		}
		entry.Score = 0.6*entry.InteractionRate + 0.4*entry.DeliveryRate

		report = append(report, entry)
	}

	return report
}

// RefreshSettings pushes the learned optimal timing into the shared settings.
// The scheduler picks it up on its next invocation.
func (e *Engine) RefreshSettings() {
	if !e.settings.AnalyticsEnabled() {
		return
	}
	timing := e.OptimalTiming()
	e.settings.ApplyLearnedTiming(timing.Hour, timing.Weekday)
	slog.Debug("refreshed learned timing",
		slog.Int("hour", timing.Hour),
		slog.String("weekday", timing.Weekday.String()),
	)
}

func bestAndWorstHours(hourCounts map[int]int) (best, worst int, ok bool) {
	if len(hourCounts) == 0 {
		return 0, 0, false
	}
	first := true
	for hour, count := range hourCounts {
		if first {
			best, worst = hour, hour
			first = false
			continue
		}
		if count > hourCounts[best] || (count == hourCounts[best] && hour < best) {
			best = hour
		}
		if count < hourCounts[worst] || (count == hourCounts[worst] && hour < worst) {
			worst = hour
		}
	}
	return best, worst, true
}
