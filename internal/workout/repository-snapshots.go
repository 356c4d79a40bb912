package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/petrasession/internal/sqlite"
)

// SnapshotKey is the fixed key under which the live session is stored.
const SnapshotKey = "active-session"

// SQLiteSnapshotStore keeps the session snapshot in the local SQLite database.
type SQLiteSnapshotStore struct {
	baseRepository
	key string
}

// NewSQLiteSnapshotStore creates a snapshot store stored under [SnapshotKey].
func NewSQLiteSnapshotStore(db *sqlite.Database, logger *slog.Logger) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{
		baseRepository: newBaseRepository(db, logger),
		key:            SnapshotKey,
	}
}

// Load returns the stored snapshot or ErrNotFound.
func (r *SQLiteSnapshotStore) Load(ctx context.Context) (State, error) {
	var data []byte
	err := r.db.ReadWrite.QueryRowContext(ctx,
		`SELECT state FROM session_snapshots WHERE key = ?`, r.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("query snapshot: %w", err)
	}

	s := InitialState()
	if err = json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.Exercises == nil {
		s.Exercises = []ExerciseResult{}
	}
	return s, nil
}

// Save overwrites the snapshot with s.
func (r *SQLiteSnapshotStore) Save(ctx context.Context, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO session_snapshots (key, state, updated) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			state = excluded.state,
			updated = excluded.updated`,
		r.key, string(data), formatTimestamp(time.Now())); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot. Deleting a missing snapshot is not an error.
func (r *SQLiteSnapshotStore) Delete(ctx context.Context) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx,
		`DELETE FROM session_snapshots WHERE key = ?`, r.key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
