package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// phantomActivityWindow bounds how fresh a scheduling date may be while the
// request set is empty before we call the state inconsistent.
const phantomActivityWindow = 7 * 24 * time.Hour

// Warning and issue markers, matched by the coordinator's repair policy.
const (
	WarningPhantomActivity = "phantom scheduling activity"
	WarningDuplicatePair   = "duplicate request key"
	WarningStaleActive     = "stale active request"
	IssueMissingStorage    = "missing backing storage"
)

// ValidateIntegrity runs consistency checks over persisted state. Warnings
// are non-fatal; issues make the state invalid.
func (s *Store) ValidateIntegrity(ctx context.Context) *domain.IntegrityReport {
	now := time.Now().UTC()
	report := &domain.IntegrityReport{
		IsValid:   true,
		Issues:    []string{},
		Warnings:  []string{},
		CheckedAt: now,
	}

	if !s.secondary.exists() {
		report.IsValid = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("%s: backup database not found at %s", IssueMissingStorage, s.secondary.path))
	}

	state, err := s.LoadState(ctx)
	if err != nil {
		// LoadState degrades to defaults; an error here still leaves a usable
		// empty state, so record it as a warning only.
		report.Warnings = append(report.Warnings, fmt.Sprintf("state read degraded: %v", err))
		return report
	}

	if state.LastSchedulingDate != nil &&
		now.Sub(*state.LastSchedulingDate) < phantomActivityWindow &&
		len(state.Requests) == 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%s: last scheduling %s but no stored requests",
				WarningPhantomActivity, state.LastSchedulingDate.Format(time.RFC3339)))
	}

	seen := make(map[string]struct{}, len(state.Requests))
	for _, req := range state.Requests {
		key := req.ItemID + ":" + string(req.Type) + ":" + req.ScheduledDate.Format(time.RFC3339)
		if _, dup := seen[key]; dup {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: %s", WarningDuplicatePair, key))
		}
		seen[key] = struct{}{}

		if req.IsExpired(now) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: request %s scheduled %s still active",
					WarningStaleActive, req.ID, req.ScheduledDate.Format(time.RFC3339)))
		}
	}

	if len(report.Warnings) > 0 || len(report.Issues) > 0 {
		slog.InfoContext(ctx, "integrity validation found findings",
			slog.Bool("is_valid", report.IsValid),
			slog.Int("issues", len(report.Issues)),
			slog.Int("warnings", len(report.Warnings)),
		)
	}

	return report
}

// RecreateStorage rebuilds the missing backup location.
func (s *Store) RecreateStorage(ctx context.Context) error {
	if err := s.secondary.recreate(); err != nil {
		return newWriteError("recreate_storage", err)
	}
	// Seed the fresh backup with whatever the primary still holds.
	state, err := s.LoadState(ctx)
	if err != nil {
		return err
	}
	if err := s.secondary.saveState(state); err != nil {
		return newWriteError("recreate_storage", err)
	}
	slog.InfoContext(ctx, "backup storage recreated", slog.String("path", s.secondary.path))
	return nil
}
