package domain

import "time"

// Snapshot is the derived analytics view. It is recomputed from history and
// interaction records, never persisted as-is.
type Snapshot struct {
	TotalScheduled     int                          `json:"total_scheduled"`
	TotalDelivered     int                          `json:"total_delivered"`
	TotalInteracted    int                          `json:"total_interacted"`
	AvgResponseTime    time.Duration                `json:"avg_response_time"`
	MostEffectiveHour  *int                         `json:"most_effective_hour,omitempty"`
	LeastEffectiveHour *int                         `json:"least_effective_hour,omitempty"`
	InteractionRates   map[ReminderType]float64     `json:"interaction_rate_by_type"`
	SnoozePatterns     map[ReminderType]SnoozeStats `json:"snooze_patterns_by_type"`
	GeneratedAt        time.Time                    `json:"generated_at"`
}

// SnoozeStats aggregates snooze behavior for one reminder type.
type SnoozeStats struct {
	Count       int           `json:"count"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// OptimalTiming is the learned best delivery slot.
type OptimalTiming struct {
	Hour    int          `json:"hour"`
	Weekday time.Weekday `json:"weekday"`
}

// TypeEffectiveness scores one reminder type.
// Score = 0.6*interaction rate + 0.4*delivery rate.
type TypeEffectiveness struct {
	Type            ReminderType  `json:"type"`
	DeliveryRate    float64       `json:"delivery_rate"`
	InteractionRate float64       `json:"interaction_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	TotalScheduled  int           `json:"total_scheduled"`
	TotalDelivered  int           `json:"total_delivered"`
	Score           float64       `json:"score"`
}
