package settings

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockStore struct {
	snap    *Snapshot
	saveErr error
	loadErr error
}

func (m *mockStore) LoadSettings(ctx context.Context) (*Snapshot, error) {
	return m.snap, m.loadErr
}

func (m *mockStore) SaveSettings(ctx context.Context, snap *Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	return nil
}

func TestDefaults(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	if snap.OptimalHour != 9 {
		t.Errorf("OptimalHour = %d, want 9", snap.OptimalHour)
	}
	if snap.OptimalWeekday != time.Tuesday {
		t.Errorf("OptimalWeekday = %v, want Tuesday", snap.OptimalWeekday)
	}
	if snap.DailyCap != 3 {
		t.Errorf("DailyCap = %d, want 3", snap.DailyCap)
	}
	if snap.LookaheadDays != 7 {
		t.Errorf("LookaheadDays = %d, want 7", snap.LookaheadDays)
	}
	if snap.WeekendEnabled {
		t.Error("WeekendEnabled should default to false")
	}
	if !snap.AnalyticsEnabled {
		t.Error("AnalyticsEnabled should default to true")
	}
	if len(snap.WarrantyOffsets) != 3 {
		t.Errorf("WarrantyOffsets = %v, want three offsets", snap.WarrantyOffsets)
	}
}

func TestReplaceNormalizesInvalidFields(t *testing.T) {
	s := New()
	s.Replace(Snapshot{
		Frequency:     FrequencyTier("bogus"),
		OptimalHour:   30,
		DailyCap:      -1,
		LookaheadDays: 0,
	})

	snap := s.Snapshot()
	if snap.Frequency != FrequencyNormal {
		t.Errorf("Frequency = %v, want normal", snap.Frequency)
	}
	if snap.OptimalHour != 9 {
		t.Errorf("OptimalHour = %d, want 9", snap.OptimalHour)
	}
	if snap.DailyCap != 3 {
		t.Errorf("DailyCap = %d, want 3", snap.DailyCap)
	}
	if snap.LookaheadDays != 7 {
		t.Errorf("LookaheadDays = %d, want 7", snap.LookaheadDays)
	}
	if len(snap.WarrantyOffsets) == 0 {
		t.Error("empty WarrantyOffsets should be replaced with defaults")
	}
}

func TestReplaceKeepsValidFields(t *testing.T) {
	s := New()
	s.Replace(Snapshot{
		WarrantyOffsets: []int{60, 14},
		Frequency:       FrequencyFrequent,
		OptimalHour:     18,
		OptimalWeekday:  time.Friday,
		WeekendEnabled:  true,
		DailyCap:        5,
		LookaheadDays:   14,
	})

	snap := s.Snapshot()
	if snap.OptimalHour != 18 || snap.OptimalWeekday != time.Friday {
		t.Errorf("timing = (%d, %v), want (18, Friday)", snap.OptimalHour, snap.OptimalWeekday)
	}
	if snap.DailyCap != 5 || snap.LookaheadDays != 14 {
		t.Errorf("caps = (%d, %d), want (5, 14)", snap.DailyCap, snap.LookaheadDays)
	}
	if !snap.WeekendEnabled {
		t.Error("WeekendEnabled not kept")
	}
}

func TestSeedScheduling(t *testing.T) {
	s := New()

	s.SeedScheduling(5, 14, 20)
	snap := s.Snapshot()
	if snap.DailyCap != 5 || snap.LookaheadDays != 14 || snap.OptimalHour != 20 {
		t.Errorf("seeded = (%d, %d, %d), want (5, 14, 20)", snap.DailyCap, snap.LookaheadDays, snap.OptimalHour)
	}

	// Out-of-range seeds are ignored field by field.
	s.SeedScheduling(0, -1, 24)
	snap = s.Snapshot()
	if snap.DailyCap != 5 || snap.LookaheadDays != 14 || snap.OptimalHour != 20 {
		t.Errorf("invalid seed applied: %+v", snap)
	}

	// A stored snapshot loaded afterwards overrides the seed.
	store := &mockStore{snap: &Snapshot{
		WarrantyOffsets: []int{30, 7, 1},
		Frequency:       FrequencyNormal,
		OptimalHour:     8,
		DailyCap:        2,
		LookaheadDays:   10,
	}}
	if err := s.Load(context.Background(), store); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	snap = s.Snapshot()
	if snap.DailyCap != 2 || snap.LookaheadDays != 10 || snap.OptimalHour != 8 {
		t.Errorf("stored snapshot did not override the seed: %+v", snap)
	}
}

func TestApplyLearnedTiming(t *testing.T) {
	s := New()

	s.ApplyLearnedTiming(15, time.Thursday)
	if s.OptimalHour() != 15 || s.OptimalWeekday() != time.Thursday {
		t.Errorf("timing = (%d, %v), want (15, Thursday)", s.OptimalHour(), s.OptimalWeekday())
	}

	// Out-of-range hours are ignored.
	s.ApplyLearnedTiming(24, time.Monday)
	if s.OptimalHour() != 15 || s.OptimalWeekday() != time.Thursday {
		t.Error("invalid learned hour should not be applied")
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}

	s := New()
	s.ApplyLearnedTiming(11, time.Wednesday)
	if err := s.Save(ctx, store); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded := New()
	if err := loaded.Load(ctx, store); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.OptimalHour() != 11 || loaded.OptimalWeekday() != time.Wednesday {
		t.Errorf("loaded timing = (%d, %v), want (11, Wednesday)", loaded.OptimalHour(), loaded.OptimalWeekday())
	}
}

func TestLoadWithEmptyStoreKeepsDefaults(t *testing.T) {
	s := New()
	if err := s.Load(context.Background(), &mockStore{}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.OptimalHour() != 9 {
		t.Errorf("OptimalHour = %d, want default 9", s.OptimalHour())
	}
}

func TestLoadPropagatesError(t *testing.T) {
	wantErr := errors.New("redis down")
	s := New()
	if err := s.Load(context.Background(), &mockStore{loadErr: wantErr}); !errors.Is(err, wantErr) {
		t.Errorf("Load() error = %v, want %v", err, wantErr)
	}
}
