package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// sqliteStore is the durable file-backed secondary. It holds the same
// serialized snapshot the primary does, in an application-private directory
// created on first use, and survives Redis data loss.
type sqliteStore struct {
	db   *sql.DB
	path string
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup database: %w", err)
	}

	// WAL keeps the backup readable while the engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &sqliteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate backup database: %w", err)
	}

	return s, nil
}

func (s *sqliteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS state_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload BLOB NOT NULL,
		schema_version INTEGER NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS background_tasks (
		identifier TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_expires ON background_tasks(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *sqliteStore) saveState(state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return ErrInvalidStateData
	}

	_, err = s.db.Exec(`
		INSERT INTO state_snapshot (id, payload, schema_version, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			schema_version = excluded.schema_version,
			saved_at = excluded.saved_at`,
		data, state.SchemaVersion, time.Now().UTC())
	return err
}

// loadState returns (nil, nil) when no snapshot has been written yet.
func (s *sqliteStore) loadState() (*domain.State, error) {
	var data []byte
	err := s.db.QueryRow("SELECT payload FROM state_snapshot WHERE id = 1").Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (s *sqliteStore) clear() error {
	if _, err := s.db.Exec("DELETE FROM state_snapshot"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM background_tasks")
	return err
}

func (s *sqliteStore) saveTask(task *domain.TaskInfo) error {
	data, err := json.Marshal(task)
	if err != nil {
		return ErrInvalidTaskData
	}

	_, err = s.db.Exec(`
		INSERT INTO background_tasks (identifier, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at`,
		task.Identifier, data, task.ExpirationTime.UTC())
	return err
}

func (s *sqliteStore) loadTasks() (map[string]*domain.TaskInfo, error) {
	rows, err := s.db.Query("SELECT payload FROM background_tasks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make(map[string]*domain.TaskInfo)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var task domain.TaskInfo
		if err := json.Unmarshal(data, &task); err != nil {
			continue
		}
		tasks[task.Identifier] = &task
	}
	return tasks, rows.Err()
}

// removeTask reports whether the entry existed.
func (s *sqliteStore) removeTask(identifier string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM background_tasks WHERE identifier = ?", identifier)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	return removed > 0, err
}

// exists reports whether the backing database file is still on disk.
func (s *sqliteStore) exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// recreate reopens the database and rebuilds the schema after the backing
// file went missing. The stale handle still points at the deleted inode, so a
// plain migrate would not bring the file back.
func (s *sqliteStore) recreate() error {
	s.db.Close()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to recreate storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to reopen backup database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s.db = db
	return s.migrate()
}

func (s *sqliteStore) close() error {
	return s.db.Close()
}
