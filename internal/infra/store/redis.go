package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/settings"
)

const (
	stateKey    = "reminders:state"
	tasksKey    = "reminders:tasks"
	settingsKey = "reminders:preferences"
)

// redisStore is the fast primary backing store. State, task registry and
// preferences live under fixed keys as JSON; no TTLs, the cleanup job owns
// eviction.
type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (r *redisStore) saveState(ctx context.Context, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return ErrInvalidStateData
	}
	return r.client.Set(ctx, stateKey, data, 0).Err()
}

// loadState returns (nil, nil) when no state is stored. Corrupt payloads are
// reported as ErrInvalidStateData so the caller can fall back.
func (r *redisStore) loadState(ctx context.Context) (*domain.State, error) {
	data, err := r.client.Get(ctx, stateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ErrInvalidStateData
	}
	return &state, nil
}

func (r *redisStore) clear(ctx context.Context) error {
	return r.client.Del(ctx, stateKey, tasksKey, settingsKey).Err()
}

func (r *redisStore) saveTask(ctx context.Context, task *domain.TaskInfo) error {
	data, err := json.Marshal(task)
	if err != nil {
		return ErrInvalidTaskData
	}
	return r.client.HSet(ctx, tasksKey, task.Identifier, data).Err()
}

func (r *redisStore) loadTasks(ctx context.Context) (map[string]*domain.TaskInfo, error) {
	entries, err := r.client.HGetAll(ctx, tasksKey).Result()
	if err != nil {
		return nil, err
	}

	tasks := make(map[string]*domain.TaskInfo, len(entries))
	for identifier, raw := range entries {
		var task domain.TaskInfo
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			// Skip corrupt entries rather than failing the whole read.
			continue
		}
		tasks[identifier] = &task
	}
	return tasks, nil
}

// removeTask reports whether the entry existed.
func (r *redisStore) removeTask(ctx context.Context, identifier string) (bool, error) {
	removed, err := r.client.HDel(ctx, tasksKey, identifier).Result()
	return removed > 0, err
}

func (r *redisStore) saveSettings(ctx context.Context, snap *settings.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, settingsKey, data, 0).Err()
}

func (r *redisStore) loadSettings(ctx context.Context) (*settings.Snapshot, error) {
	data, err := r.client.Get(ctx, settingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap settings.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

func (r *redisStore) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
