package domain

import "time"

// StateSchemaVersion is bumped whenever the persisted layout changes shape.
const StateSchemaVersion = 2

// State is the persisted aggregate snapshot: the full current set of schedule
// requests plus bookkeeping dates. The durable stores hold this as the single
// source of truth; in-memory structures are a cache of it.
type State struct {
	Requests           []*ScheduleRequest `json:"requests"`
	LastSchedulingDate *time.Time         `json:"last_scheduling_date,omitempty"`
	LastSaveDate       *time.Time         `json:"last_save_date,omitempty"`
	SchemaVersion      int                `json:"schema_version"`
}

// NewEmptyState returns the default state used when nothing is stored yet.
func NewEmptyState() *State {
	return &State{
		Requests:      []*ScheduleRequest{},
		SchemaVersion: StateSchemaVersion,
	}
}

// ActiveRequests returns the requests still awaiting delivery.
func (s *State) ActiveRequests() []*ScheduleRequest {
	active := make([]*ScheduleRequest, 0, len(s.Requests))
	for _, r := range s.Requests {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}
