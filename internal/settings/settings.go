// Package settings holds the process-scoped notification preferences shared by
// the timing calculator, the load balancer and the analytics feedback loop.
// There is one Settings instance per process, created at startup and passed by
// reference; components read it on each invocation rather than caching values.
package settings

import (
	"context"
	"slices"
	"sync"
	"time"
)

// FrequencyTier caps how chatty the engine may be overall.
type FrequencyTier string

const (
	FrequencyMinimal  FrequencyTier = "minimal"
	FrequencyNormal   FrequencyTier = "normal"
	FrequencyFrequent FrequencyTier = "frequent"
	FrequencyMaximum  FrequencyTier = "maximum"
)

func (f FrequencyTier) IsValid() bool {
	switch f {
	case FrequencyMinimal, FrequencyNormal, FrequencyFrequent, FrequencyMaximum:
		return true
	}
	return false
}

// Snapshot is the serializable form of the settings, as written to the
// preferences store and exchanged over the API.
type Snapshot struct {
	WarrantyOffsets  []int         `json:"warranty_offsets"`
	Frequency        FrequencyTier `json:"frequency"`
	OptimalHour      int           `json:"optimal_hour"`
	OptimalWeekday   time.Weekday  `json:"optimal_weekday"`
	WeekendEnabled   bool          `json:"weekend_notifications_enabled"`
	SummaryEnabled   bool          `json:"summary_notifications_enabled"`
	AnalyticsEnabled bool          `json:"analytics_enabled"`
	DailyCap         int           `json:"daily_cap"`
	LookaheadDays    int           `json:"lookahead_days"`
}

// Store persists settings snapshots in the preferences store.
type Store interface {
	LoadSettings(ctx context.Context) (*Snapshot, error)
	SaveSettings(ctx context.Context, snap *Snapshot) error
}

// Settings is safe for concurrent use.
type Settings struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Defaults returns the out-of-the-box snapshot.
func Defaults() Snapshot {
	return Snapshot{
		WarrantyOffsets:  []int{30, 7, 1},
		Frequency:        FrequencyNormal,
		OptimalHour:      9,
		OptimalWeekday:   time.Tuesday,
		WeekendEnabled:   false,
		SummaryEnabled:   true,
		AnalyticsEnabled: true,
		DailyCap:         3,
		LookaheadDays:    7,
	}
}

func New() *Settings {
	return &Settings{snap: Defaults()}
}

// SeedScheduling applies the deployment-level scheduling defaults from the
// environment. Called before Load; a stored snapshot overrides the seed.
func (s *Settings) SeedScheduling(dailyCap, lookaheadDays, optimalHour int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dailyCap > 0 {
		s.snap.DailyCap = dailyCap
	}
	if lookaheadDays > 0 {
		s.snap.LookaheadDays = lookaheadDays
	}
	if optimalHour >= 0 && optimalHour <= 23 {
		s.snap.OptimalHour = optimalHour
	}
}

// Load replaces the current values with the stored snapshot, keeping defaults
// when nothing is stored.
func (s *Settings) Load(ctx context.Context, store Store) error {
	snap, err := store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	s.Replace(*snap)
	return nil
}

// Save writes the current values to the preferences store.
func (s *Settings) Save(ctx context.Context, store Store) error {
	snap := s.Snapshot()
	return store.SaveSettings(ctx, &snap)
}

// Snapshot returns a copy of the current values.
func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.WarrantyOffsets = slices.Clone(s.snap.WarrantyOffsets)
	return snap
}

// Replace swaps in a full snapshot, normalizing invalid fields to defaults.
func (s *Settings) Replace(snap Snapshot) {
	defaults := Defaults()
	if len(snap.WarrantyOffsets) == 0 {
		snap.WarrantyOffsets = defaults.WarrantyOffsets
	}
	if !snap.Frequency.IsValid() {
		snap.Frequency = defaults.Frequency
	}
	if snap.OptimalHour < 0 || snap.OptimalHour > 23 {
		snap.OptimalHour = defaults.OptimalHour
	}
	if snap.DailyCap <= 0 {
		snap.DailyCap = defaults.DailyCap
	}
	if snap.LookaheadDays <= 0 {
		snap.LookaheadDays = defaults.LookaheadDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func (s *Settings) OptimalHour() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.OptimalHour
}

func (s *Settings) OptimalWeekday() time.Weekday {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.OptimalWeekday
}

func (s *Settings) WeekendEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.WeekendEnabled
}

func (s *Settings) SummaryEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.SummaryEnabled
}

func (s *Settings) AnalyticsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.AnalyticsEnabled
}

func (s *Settings) DailyCap() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.DailyCap
}

func (s *Settings) LookaheadDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LookaheadDays
}

func (s *Settings) WarrantyOffsets() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.WarrantyOffsets)
}

// ApplyLearnedTiming is the analytics feedback path: it moves the preferred
// delivery slot without touching user-chosen preferences.
func (s *Settings) ApplyLearnedTiming(hour int, weekday time.Weekday) {
	if hour < 0 || hour > 23 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.OptimalHour = hour
	s.snap.OptimalWeekday = weekday
}
