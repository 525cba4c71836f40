// Package history records validation runs in a SQL database so results can be compared across
// runs
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/refwire/refwire/internal/engine"
)

// Dialect selects placeholder style and column types
type Dialect int

const (
	// SQLite uses ? placeholders
	SQLite Dialect = iota
	// Postgres uses $n placeholders
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// rebind rewrites ? placeholders to $n for Postgres
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) timestampType() string {
	if d == Postgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

// Run is one recorded validation run over a scene
type Run struct {
	ID         uuid.UUID
	Scene      string
	StartedAt  time.Time
	DurationMS int64
	Passed     bool
	Hosts      int
	Errors     int
	Warnings   int
	Fatal      int
}

// NewRun summarizes a batch report
func NewRun(scene string, started time.Time, batch *engine.BatchReport) *Run {
	list := batch.Diagnostics()
	return &Run{
		ID:         uuid.New(),
		Scene:      scene,
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Passed:     batch.Passed,
		Hosts:      len(batch.Reports),
		Errors:     len(list.Errors()),
		Warnings:   len(list.Warnings()),
		Fatal:      len(batch.Fatal),
	}
}

// Tracker manages run history in the database
type Tracker struct {
	db      *sql.DB
	dialect Dialect
}

// NewTracker creates a tracker over an open database
func NewTracker(db *sql.DB, dialect Dialect) *Tracker {
	return &Tracker{db: db, dialect: dialect}
}

// Open connects to the database with the given driver and initializes the runs table
func Open(ctx context.Context, driver, dsn string) (*Tracker, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	t := NewTracker(db, dialect)
	if err := t.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

// Close closes the underlying database
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Initialize ensures the validation_runs table exists
func (t *Tracker) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS validation_runs (
	id VARCHAR(36) PRIMARY KEY,
	scene TEXT NOT NULL,
	started_at %s NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	passed BOOLEAN NOT NULL,
	hosts INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0,
	fatal INTEGER NOT NULL DEFAULT 0
)`, t.dialect.timestampType())
	if _, err := t.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize validation_runs table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_validation_runs_scene ON validation_runs(scene, started_at)`
	if _, err := t.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to index validation_runs table: %w", err)
	}
	return nil
}

// Record stores a run
func (t *Tracker) Record(ctx context.Context, r *Run) error {
	query := t.dialect.rebind(`
INSERT INTO validation_runs (id, scene, started_at, duration_ms, passed, hosts, errors, warnings, fatal)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := t.db.ExecContext(ctx, query,
		r.ID.String(), r.Scene, r.StartedAt, r.DurationMS, r.Passed, r.Hosts, r.Errors, r.Warnings, r.Fatal)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const selectRuns = `
SELECT id, scene, started_at, duration_ms, passed, hosts, errors, warnings, fatal
FROM validation_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	r := &Run{}
	var id string
	if err := s.Scan(&id, &r.Scene, &r.StartedAt, &r.DurationMS, &r.Passed, &r.Hosts, &r.Errors, &r.Warnings, &r.Fatal); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	r.ID = parsed
	return r, nil
}

// Last returns the most recent run of scene, or nil if none exist
func (t *Tracker) Last(ctx context.Context, scene string) (*Run, error) {
	query := t.dialect.rebind(selectRuns + `
WHERE scene = ?
ORDER BY started_at DESC
LIMIT 1`)
	r, err := scanRun(t.db.QueryRowContext(ctx, query, scene))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. An empty scene lists every scene.
func (t *Tracker) List(ctx context.Context, scene string, limit int) ([]*Run, error) {
	var (
		where string
		args  []any
	)
	if scene != "" {
		where = "\nWHERE scene = ?"
		args = append(args, scene)
	}
	args = append(args, limit)
	query := t.dialect.rebind(selectRuns + where + `
ORDER BY started_at DESC
LIMIT ?`)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Regressed reports whether r fails after the previous run of the same scene passed
func (t *Tracker) Regressed(ctx context.Context, r *Run) (bool, error) {
	if r.Passed {
		return false, nil
	}
	query := t.dialect.rebind(selectRuns + `
WHERE scene = ? AND id <> ?
ORDER BY started_at DESC
LIMIT 1`)
	prev, err := scanRun(t.db.QueryRowContext(ctx, query, r.Scene, r.ID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get previous run: %w", err)
	}
	return prev.Passed, nil
}
