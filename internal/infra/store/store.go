// Package store persists the notification state durably across restarts.
//
// Every save writes the same serialized snapshot to two backing locations: a
// fast Redis primary and a file-backed SQLite secondary. Reads prefer the
// primary and fall back to the secondary when the primary is empty or
// corrupt; a read never fails outright, it degrades to the empty default.
// Concurrent writers are not supported; the schedule service serializes all
// mutation.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

// Store implements domain.StateRepository and settings.Store over the two
// backing locations.
type Store struct {
	primary   *redisStore
	secondary *sqliteStore
}

var (
	_ domain.StateRepository = (*Store)(nil)
	_ settings.Store         = (*Store)(nil)
)

func New(client *redis.Client, backupPath string) (*Store, error) {
	secondary, err := newSQLiteStore(backupPath)
	if err != nil {
		return nil, err
	}

	return &Store{
		primary:   newRedisStore(client),
		secondary: secondary,
	}, nil
}

// SaveState writes the snapshot to both stores. A failure in either surfaces
// as a WriteError, but the other store is still written so at least one copy
// stays fresh.
func (s *Store) SaveState(ctx context.Context, state *domain.State) error {
	now := time.Now().UTC()
	state.LastSaveDate = &now
	state.SchemaVersion = domain.StateSchemaVersion

	primaryErr := s.primary.saveState(ctx, state)
	secondaryErr := s.secondary.saveState(state)

	if primaryErr != nil || secondaryErr != nil {
		return newWriteError("save_state", errors.Join(primaryErr, secondaryErr))
	}
	return nil
}

// LoadState never fails: primary first, secondary on empty or corrupt
// primary, empty default when neither store holds anything usable.
func (s *Store) LoadState(ctx context.Context) (*domain.State, error) {
	state, err := s.primary.loadState(ctx)
	if err != nil {
		slog.WarnContext(ctx, "primary state read failed, falling back to backup",
			slog.String("error", err.Error()),
		)
	}
	if state != nil {
		return state, nil
	}

	state, err = s.secondary.loadState()
	if err != nil {
		slog.WarnContext(ctx, "backup state read failed, using empty default",
			slog.String("error", err.Error()),
		)
	}
	if state != nil {
		// Refresh the primary so the next read is fast again.
		if err := s.primary.saveState(ctx, state); err != nil {
			slog.WarnContext(ctx, "failed to refresh primary from backup",
				slog.String("error", err.Error()),
			)
		}
		return state, nil
	}

	return domain.NewEmptyState(), nil
}

func (s *Store) Clear(ctx context.Context) error {
	primaryErr := s.primary.clear(ctx)
	secondaryErr := s.secondary.clear()
	if primaryErr != nil || secondaryErr != nil {
		return newWriteError("clear", errors.Join(primaryErr, secondaryErr))
	}
	return nil
}

// SaveRequests replaces the stored request set, keeping the scheduling date
// current.
func (s *Store) SaveRequests(ctx context.Context, requests []*domain.ScheduleRequest) error {
	state, err := s.LoadState(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	state.Requests = requests
	state.LastSchedulingDate = &now
	return s.SaveState(ctx, state)
}

func (s *Store) LoadRequests(ctx context.Context) ([]*domain.ScheduleRequest, error) {
	state, err := s.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Requests, nil
}

func (s *Store) SaveTask(ctx context.Context, task *domain.TaskInfo) error {
	primaryErr := s.primary.saveTask(ctx, task)
	secondaryErr := s.secondary.saveTask(task)
	if primaryErr != nil || secondaryErr != nil {
		return newWriteError("save_task", errors.Join(primaryErr, secondaryErr))
	}
	return nil
}

// LoadTasks prefers the primary registry and falls back to the backup.
func (s *Store) LoadTasks(ctx context.Context) (map[string]*domain.TaskInfo, error) {
	tasks, err := s.primary.loadTasks(ctx)
	if err != nil {
		slog.WarnContext(ctx, "primary task read failed, falling back to backup",
			slog.String("error", err.Error()),
		)
		tasks = nil
	}
	if len(tasks) > 0 {
		return tasks, nil
	}

	backupTasks, err := s.secondary.loadTasks()
	if err != nil {
		slog.WarnContext(ctx, "backup task read failed, using empty registry",
			slog.String("error", err.Error()),
		)
		return map[string]*domain.TaskInfo{}, nil
	}
	return backupTasks, nil
}

// RemoveTask deletes the registry entry from both stores, returning
// domain.ErrTaskNotFound when neither held it.
func (s *Store) RemoveTask(ctx context.Context, identifier string) error {
	primaryRemoved, primaryErr := s.primary.removeTask(ctx, identifier)
	secondaryRemoved, secondaryErr := s.secondary.removeTask(identifier)
	if primaryErr != nil || secondaryErr != nil {
		return newWriteError("remove_task", errors.Join(primaryErr, secondaryErr))
	}
	if !primaryRemoved && !secondaryRemoved {
		return domain.ErrTaskNotFound
	}
	return nil
}

// SaveSettings and LoadSettings back the shared preferences object.
func (s *Store) SaveSettings(ctx context.Context, snap *settings.Snapshot) error {
	if err := s.primary.saveSettings(ctx, snap); err != nil {
		return newWriteError("save_settings", err)
	}
	return nil
}

func (s *Store) LoadSettings(ctx context.Context) (*settings.Snapshot, error) {
	return s.primary.loadSettings(ctx)
}

// Ping probes the primary store for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.primary.ping(ctx)
}

// BackupAvailable reports whether the secondary's backing file is on disk.
func (s *Store) BackupAvailable() bool {
	return s.secondary.exists()
}

func (s *Store) Close() error {
	return s.secondary.close()
}
