package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/toolforge/toolforge/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: path}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// A single sequential run needs no pool to speak of.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded schema files.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// CreateRun records a run at start.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *RunRecord) error {
	query := `
		INSERT INTO runs (id, profile, status, hostname, started_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Profile, run.Status, run.Hostname,
		run.StartedAt.Format(time.RFC3339Nano), run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records a run's terminal status and completion time.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID, status string, completedAt time.Time) error {
	query := `UPDATE runs SET status = ?, completed_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, status, completedAt.Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveComponentResult appends one component result to a run.
func (s *SQLiteStore) SaveComponentResult(ctx context.Context, runID string, result engine.ComponentResult) error {
	query := `
		INSERT INTO component_results
			(run_id, component_id, status, method, skip_reason, diagnostic, version, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		runID, result.ComponentID, string(result.Status), result.Method,
		string(result.SkipReason), result.Diagnostic, result.Version,
		nullableTime(result.StartedAt), nullableTime(result.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save component result: %w", err)
	}
	return nil
}

// AppendEvent appends one event to a run's log.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event engine.Event) error {
	query := `
		INSERT INTO events (run_id, component_id, method, phase, diagnostic, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.RunID, event.ComponentID, event.Method,
		string(event.Phase), event.Diagnostic, event.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recently started run.
func (s *SQLiteStore) GetLatestRun(ctx context.Context) (*RunRecord, error) {
	query := `
		SELECT id, profile, status, hostname, started_at, completed_at, created_at
		FROM runs ORDER BY started_at DESC LIMIT 1
	`

	var (
		run         RunRecord
		startedAt   string
		completedAt sql.NullString
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.Profile, &run.Status, &run.Hostname,
		&startedAt, &completedAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListResults returns a run's component results in insertion order.
func (s *SQLiteStore) ListResults(ctx context.Context, runID string) ([]ComponentResultRecord, error) {
	query := `
		SELECT id, run_id, component_id, status, method, skip_reason, diagnostic, version, started_at, completed_at
		FROM component_results WHERE run_id = ? ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []ComponentResultRecord
	for rows.Next() {
		var (
			r                      ComponentResultRecord
			startedAt, completedAt sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.ComponentID, &r.Status, &r.Method,
			&r.SkipReason, &r.Diagnostic, &r.Version, &startedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if r.StartedAt, err = parseNullableTime(startedAt); err != nil {
			return nil, err
		}
		if r.CompletedAt, err = parseNullableTime(completedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListEvents returns a run's events in insertion order.
func (s *SQLiteStore) ListEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	query := `
		SELECT id, run_id, component_id, method, phase, diagnostic, timestamp
		FROM events WHERE run_id = ? ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var (
			e  EventRecord
			ts string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.ComponentID, &e.Method, &e.Phase, &e.Diagnostic, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &t, nil
}
