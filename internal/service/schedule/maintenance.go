package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// PerformCleanup removes expired requests from the owned state and expired
// background tasks from the registry. Idempotent; succeeds even when nothing
// changes. Runs under the service mutex so a concurrent scheduling call can
// never be overwritten by the cleanup's persist.
func (s *Service) PerformCleanup(ctx context.Context) (*domain.CleanupReport, error) {
	now := time.Now()
	report := &domain.CleanupReport{}

	s.mu.Lock()
	kept := s.state.Requests[:0]
	for _, req := range s.state.Requests {
		if req.IsExpired(now) {
			delete(s.byID, req.ID)
			s.removeFromActiveLocked(req)
			report.RemovedRequests++
			continue
		}
		kept = append(kept, req)
	}
	if report.RemovedRequests > 0 {
		s.state.Requests = kept
		if err := s.persistLocked(ctx); err != nil {
			s.mu.Unlock()
			return report, err
		}
	}
	s.mu.Unlock()

	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return report, err
	}
	for identifier, task := range tasks {
		if !task.IsExpired(now) {
			continue
		}
		if err := s.repo.RemoveTask(ctx, identifier); err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				continue
			}
			slog.WarnContext(ctx, "failed to remove expired task",
				slog.String("identifier", identifier),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.RemovedTasks++
	}

	if report.RemovedRequests > 0 || report.RemovedTasks > 0 {
		slog.InfoContext(ctx, "cleanup complete",
			slog.Int("removed_requests", report.RemovedRequests),
			slog.Int("removed_tasks", report.RemovedTasks),
		)
	}
	return report, nil
}

// ClearSchedulingFlag resets the phantom-activity marker: the repair for a
// state that claims recent scheduling while holding no requests. The owned
// state is the source of truth, so a concurrently admitted request survives
// the repair.
func (s *Service) ClearSchedulingFlag(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.LastSchedulingDate == nil {
		return nil
	}
	s.state.LastSchedulingDate = nil
	return s.persistLocked(ctx)
}
