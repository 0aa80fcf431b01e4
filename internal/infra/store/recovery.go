package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// PerformRecovery is the restart path: it restores persisted state and
// classifies what survived, returning counts for observability. It never
// fails; missing data recovers to an empty snapshot.
func (s *Store) PerformRecovery(ctx context.Context) (*domain.RecoveryReport, error) {
	now := time.Now().UTC()
	report := &domain.RecoveryReport{RecoveredAt: now}

	state, err := s.LoadState(ctx)
	if err != nil {
		return report, err
	}
	for _, req := range state.Requests {
		if req.IsExpired(now) {
			report.ExpiredRequests++
		} else {
			report.ValidRequests++
		}
	}

	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return report, err
	}
	for _, task := range tasks {
		if task.IsExpired(now) {
			report.ExpiredTasks++
		} else {
			report.ActiveTasks++
		}
	}

	slog.InfoContext(ctx, "recovery complete",
		slog.Int("valid_requests", report.ValidRequests),
		slog.Int("expired_requests", report.ExpiredRequests),
		slog.Int("active_tasks", report.ActiveTasks),
		slog.Int("expired_tasks", report.ExpiredTasks),
	)

	return report, nil
}
