package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dallasopendata/incidents/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and migrates it.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL,
			dataset_id TEXT NOT NULL,
			total_calls INTEGER NOT NULL,
			generated_at DATETIME NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_generated ON snapshots(generated_at)`,
		`CREATE TABLE IF NOT EXISTS tracked_calls (
			id TEXT PRIMARY KEY,
			nature_of_call TEXT NOT NULL,
			location TEXT NOT NULL,
			beat TEXT NOT NULL,
			block TEXT NOT NULL DEFAULT '',
			unit_number TEXT NOT NULL DEFAULT '',
			captured_at DATETIME NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracked_beat ON tracked_calls(beat)`,
		`CREATE INDEX IF NOT EXISTS idx_tracked_captured ON tracked_calls(captured_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores a snapshot, assigning an id when it has none.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *models.ActiveCallsSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, dataset, dataset_id, total_calls, generated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Summary.Dataset, snap.Summary.DatasetID, snap.Summary.TotalCalls,
		snap.Summary.GeneratedAt.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*models.ActiveCallsSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

// LatestSnapshot retrieves the most recently generated snapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*models.ActiveCallsSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM snapshots ORDER BY generated_at DESC, rowid DESC LIMIT 1`)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*models.ActiveCallsSnapshot, error) {
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap models.ActiveCallsSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns paginated snapshot metadata, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit, offset int) ([]*models.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset, dataset_id, total_calls, generated_at
		FROM snapshots ORDER BY generated_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*models.SnapshotInfo
	for rows.Next() {
		var info models.SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Dataset, &info.DatasetID, &info.TotalCalls, &info.GeneratedAt); err != nil {
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// RecentSnapshots returns up to limit full snapshots in generation order,
// oldest first.
func (s *SQLiteStore) RecentSnapshots(ctx context.Context, limit int) ([]*models.ActiveCallsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM (
			SELECT payload, generated_at, rowid AS rid FROM snapshots
			ORDER BY generated_at DESC, rowid DESC LIMIT ?
		) ORDER BY generated_at ASC, rid ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.ActiveCallsSnapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap models.ActiveCallsSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// SaveTrackedCall stores a tracked call, assigning an id when it has none.
func (s *SQLiteStore) SaveTrackedCall(ctx context.Context, call *models.TrackedCall) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.Tags == nil {
		call.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(call.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracked_calls (id, nature_of_call, location, beat, block, unit_number, captured_at, notes, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID, call.NatureOfCall, call.Location, call.Beat, call.Block, call.UnitNumber,
		call.CapturedAt.UTC(), call.Notes, string(tagsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save tracked call: %w", err)
	}
	return nil
}

const trackedColumns = `id, nature_of_call, location, beat, block, unit_number, captured_at, notes, tags`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrackedCall(sc scanner) (*models.TrackedCall, error) {
	var c models.TrackedCall
	var tagsJSON string
	if err := sc.Scan(&c.ID, &c.NatureOfCall, &c.Location, &c.Beat, &c.Block,
		&c.UnitNumber, &c.CapturedAt, &c.Notes, &tagsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", c.ID, err)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

// GetTrackedCall retrieves a tracked call by ID.
func (s *SQLiteStore) GetTrackedCall(ctx context.Context, id string) (*models.TrackedCall, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackedColumns+` FROM tracked_calls WHERE id = ?`, id)
	c, err := scanTrackedCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListTrackedCalls returns tracked calls in capture order, narrowed by filter.
func (s *SQLiteStore) ListTrackedCalls(ctx context.Context, filter models.TrackedCallFilter) ([]*models.TrackedCall, error) {
	var where []string
	var args []any
	if filter.Beat != "" {
		where = append(where, "beat = ?")
		args = append(args, filter.Beat)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(tracked_calls.tags) WHERE value = ?)")
		args = append(args, filter.Tag)
	}

	q := `SELECT ` + trackedColumns + ` FROM tracked_calls`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY captured_at ASC, rowid ASC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*models.TrackedCall
	for rows.Next() {
		c, err := scanTrackedCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// DeleteTrackedCall removes a tracked call.
func (s *SQLiteStore) DeleteTrackedCall(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracked_calls WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
