package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus tracks a schedule request through its lifecycle.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusDispatched RequestStatus = "dispatched"
	StatusDelivered  RequestStatus = "delivered"
	StatusInteracted RequestStatus = "interacted"
	StatusIgnored    RequestStatus = "ignored"
	StatusCancelled  RequestStatus = "cancelled"
	StatusExpired    RequestStatus = "expired"
)

// ScheduleRequest is one admitted or candidate notification. Immutable once
// admitted; rescheduling replaces the request rather than mutating it.
type ScheduleRequest struct {
	ID                 string             `json:"id"`
	ItemID             string             `json:"item_id"`
	Type               ReminderType       `json:"type"`
	ScheduledDate      time.Time          `json:"scheduled_date"`
	Title              string             `json:"title"`
	Body               string             `json:"body"`
	Priority           Priority           `json:"priority"`
	Recurrence         RecurrenceInterval `json:"recurrence,omitempty"`
	CustomIntervalDays int                `json:"custom_interval_days,omitempty"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
	Status             RequestStatus      `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
}

func NewScheduleRequest(itemID string, reminderType ReminderType, scheduledDate time.Time, title, body string, priority Priority) *ScheduleRequest {
	return &ScheduleRequest{
		ID:            uuid.NewString(),
		ItemID:        itemID,
		Type:          reminderType,
		ScheduledDate: scheduledDate,
		Title:         title,
		Body:          body,
		Priority:      priority,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// IsActive reports whether the request still awaits delivery.
func (r *ScheduleRequest) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusDispatched
}

// IsExpired reports whether the scheduled date has passed without delivery.
func (r *ScheduleRequest) IsExpired(now time.Time) bool {
	return r.IsActive() && r.ScheduledDate.Before(now)
}

// PairKey identifies the (item, type) pair that may hold at most one active
// request at a time.
func (r *ScheduleRequest) PairKey() string {
	return r.ItemID + ":" + string(r.Type)
}

// ScheduledDayKey returns the calendar-day bucket of the scheduled date.
func (r *ScheduleRequest) ScheduledDayKey() string {
	return DayKey(r.ScheduledDate)
}

// WithDate returns a copy of the request re-dated to scheduledDate.
func (r *ScheduleRequest) WithDate(scheduledDate time.Time) *ScheduleRequest {
	clone := *r
	clone.ScheduledDate = scheduledDate
	if r.Metadata != nil {
		clone.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// DayKey buckets a time into its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
