package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"soak_console/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

const (
	snapshotRowID = 1

	upsertSnapshotSQL = `
		INSERT INTO snapshot_cache (id, snapshot, settings, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot=excluded.snapshot,
			settings=excluded.settings,
			saved_at=excluded.saved_at
	`

	selectSnapshotSQL = `SELECT snapshot, settings, saved_at FROM snapshot_cache WHERE id=?`
)

// Save replaces the cached row (id always 1).
func (r *SnapshotSQLite) Save(ctx context.Context, s models.CachedState) error {
	snap, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	ts := s.SavedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	if _, err := r.db.ExecContext(ctx, upsertSnapshotSQL, snapshotRowID, string(snap), string(settings), ts); err != nil {
		return fmt.Errorf("save snapshot cache: %w", err)
	}
	return nil
}

// Load returns the cached row. ok is false if nothing was cached yet.
func (r *SnapshotSQLite) Load(ctx context.Context) (models.CachedState, bool, error) {
	var (
		s              models.CachedState
		snap, settings string
	)
	err := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRowID).Scan(&snap, &settings, &s.SavedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CachedState{}, false, nil
		}
		return models.CachedState{}, false, fmt.Errorf("load snapshot cache: %w", err)
	}
	if err := json.Unmarshal([]byte(snap), &s.Snapshot); err != nil {
		return models.CachedState{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &s.Settings); err != nil {
		return models.CachedState{}, false, fmt.Errorf("decode settings: %w", err)
	}
	s.SavedAt = s.SavedAt.UTC()
	return s, true, nil
}
