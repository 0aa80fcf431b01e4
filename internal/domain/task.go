package domain

import "time"

// TaskKind identifies one of the recurring background maintenance jobs.
type TaskKind string

const (
	TaskNotificationProcessing TaskKind = "notification_processing"
	TaskWarrantyCheck          TaskKind = "warranty_check"
	TaskAnalyticsCollection    TaskKind = "analytics_collection"
)

func (k TaskKind) String() string {
	return string(k)
}

// TaskInfo is the bookkeeping record for one scheduled background job instance.
type TaskInfo struct {
	Identifier     string            `json:"identifier"`
	Kind           TaskKind          `json:"kind"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpirationTime time.Time         `json:"expiration_time"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the job instance outlived its expiration time.
func (t *TaskInfo) IsExpired(now time.Time) bool {
	return t.ExpirationTime.Before(now)
}
