package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=state_repository.go -destination=state_repository_mock.go -package=domain

// StateRepository is the durable persistence boundary. Implementations write
// every save to both a fast primary store and a file-backed secondary, and
// never fail a read: missing or corrupt data degrades to the empty default.
type StateRepository interface {
	SaveState(ctx context.Context, state *State) error
	LoadState(ctx context.Context) (*State, error)
	Clear(ctx context.Context) error

	SaveRequests(ctx context.Context, requests []*ScheduleRequest) error
	LoadRequests(ctx context.Context) ([]*ScheduleRequest, error)

	SaveTask(ctx context.Context, task *TaskInfo) error
	LoadTasks(ctx context.Context) (map[string]*TaskInfo, error)
	RemoveTask(ctx context.Context, identifier string) error
}

// RecoveryReport counts what the restart path found in the durable stores.
type RecoveryReport struct {
	ValidRequests   int       `json:"valid_requests"`
	ExpiredRequests int       `json:"expired_requests"`
	ActiveTasks     int       `json:"active_tasks"`
	ExpiredTasks    int       `json:"expired_tasks"`
	RecoveredAt     time.Time `json:"recovered_at"`
}

// IntegrityReport is the result of consistency checks over persisted state.
type IntegrityReport struct {
	IsValid   bool      `json:"is_valid"`
	Issues    []string  `json:"issues"`
	Warnings  []string  `json:"warnings"`
	CheckedAt time.Time `json:"checked_at"`
}

// CleanupReport counts what an idempotent cleanup pass removed.
type CleanupReport struct {
	RemovedRequests int `json:"removed_requests"`
	RemovedTasks    int `json:"removed_tasks"`
}
