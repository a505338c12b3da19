// Package prefs persists the agent's small local state: the sync duration
// preference, per-metric enable flags, and a journal of past sync results.
// Everything lives in one SQLite file beside the agent.
package prefs

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"vitalsync/internal/syncer"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const keySyncDuration = "sync_duration"

// Store is the SQLite-backed preferences and journal store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at dir/prefs.db and applies pending
// migrations.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "prefs.db"))
	if err != nil {
		return nil, fmt.Errorf("opening prefs db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw preference value for key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, nil
}

// Set stores the raw preference value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}
	return nil
}

// SyncDuration returns the stored symbolic sync duration, defaulting to
// syncer.DefaultDuration when unset.
func (s *Store) SyncDuration(ctx context.Context) (string, error) {
	d, err := s.Get(ctx, keySyncDuration)
	if err != nil {
		return "", err
	}
	if d == "" {
		return syncer.DefaultDuration, nil
	}
	return d, nil
}

// SetSyncDuration stores the symbolic sync duration.
func (s *Store) SetSyncDuration(ctx context.Context, duration string) error {
	if !syncer.ValidDuration(duration) {
		return fmt.Errorf("invalid sync duration %q", duration)
	}
	return s.Set(ctx, keySyncDuration, duration)
}

// EnabledMetrics returns the per-metric enable flags that have been set.
// Record types absent from the map have never been toggled and are treated
// as disabled by the orchestrator.
func (s *Store) EnabledMetrics(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_type, enabled FROM metric_settings`)
	if err != nil {
		return nil, fmt.Errorf("querying metric settings: %w", err)
	}
	defer rows.Close()

	enabled := make(map[string]bool)
	for rows.Next() {
		var recordType string
		var on bool
		if err := rows.Scan(&recordType, &on); err != nil {
			return nil, fmt.Errorf("scanning metric setting: %w", err)
		}
		enabled[recordType] = on
	}
	return enabled, rows.Err()
}

// SetMetricEnabled toggles one metric's enable flag.
func (s *Store) SetMetricEnabled(ctx context.Context, recordType string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_settings (record_type, enabled) VALUES (?, ?)
		 ON CONFLICT(record_type) DO UPDATE SET enabled = excluded.enabled`,
		recordType, enabled)
	if err != nil {
		return fmt.Errorf("setting metric %s: %w", recordType, err)
	}
	return nil
}

// SyncEntry is one journaled sync result.
type SyncEntry struct {
	ID         string               `json:"id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Duration   string               `json:"duration"`
	Success    bool                 `json:"success"`
	Message    string               `json:"message,omitempty"`
	Error      string               `json:"error,omitempty"`
	BatchSize  int                  `json:"batch_size"`
	SyncErrors []syncer.MetricError `json:"sync_errors"`
}

// RecordSync journals one sync result.
func (s *Store) RecordSync(ctx context.Context, res *syncer.Result) error {
	errsJSON, err := json.Marshal(res.SyncErrors)
	if err != nil {
		return fmt.Errorf("marshaling sync errors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, started_at, finished_at, duration, success, message, error, batch_size, sync_errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID.String(), res.StartedAt, res.FinishedAt, res.Duration,
		res.Success, res.Message, res.Error, res.BatchSize, string(errsJSON))
	if err != nil {
		return fmt.Errorf("recording sync result: %w", err)
	}
	return nil
}

// RecentSyncs returns up to limit journal entries, newest first.
func (s *Store) RecentSyncs(ctx context.Context, limit int) ([]SyncEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, duration, success, message, error, batch_size, sync_errors
		 FROM sync_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	defer rows.Close()

	var entries []SyncEntry
	for rows.Next() {
		var e SyncEntry
		var errsJSON string
		if err := rows.Scan(&e.ID, &e.StartedAt, &e.FinishedAt, &e.Duration,
			&e.Success, &e.Message, &e.Error, &e.BatchSize, &errsJSON); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		if err := json.Unmarshal([]byte(errsJSON), &e.SyncErrors); err != nil {
			e.SyncErrors = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestSync returns the most recent journal entry, or nil when the journal
// is empty.
func (s *Store) LatestSync(ctx context.Context) (*SyncEntry, error) {
	entries, err := s.RecentSyncs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
