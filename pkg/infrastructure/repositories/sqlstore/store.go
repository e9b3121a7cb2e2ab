// Package sqlstore persists simulation runs to SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect selects the SQL driver and placeholder style
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts "sqlite", "postgres" or "pgx"
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

var ErrRunNotFound = errors.New("run not found")

// Store is a run history backed by database/sql
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, verifies the connection and creates the schema. For SQLite
// the dsn is a file path; parent directories are created.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn required")
	}
	if dialect == SQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// a single connection keeps :memory: databases shared across calls
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		sim_time INTEGER NOT NULL,
		total_parts BIGINT NOT NULL,
		mission_need BIGINT NOT NULL,
		seed TEXT NOT NULL,
		completed INTEGER NOT NULL,
		micap_periods INTEGER NOT NULL,
		total_shortfall BIGINT NOT NULL,
		scenario TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lifecycles (
		run_id TEXT NOT NULL,
		record_id INTEGER NOT NULL,
		part_id INTEGER NOT NULL,
		cycle INTEGER NOT NULL,
		condemned INTEGER NOT NULL,
		spawned_period INTEGER NOT NULL,
		open INTEGER NOT NULL,
		start_time DOUBLE PRECISION NOT NULL,
		fleet_duration DOUBLE PRECISION NOT NULL,
		condition_f_duration DOUBLE PRECISION NOT NULL,
		depot_duration DOUBLE PRECISION NOT NULL,
		condition_a_duration DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, record_id)
	)`,
	`CREATE TABLE IF NOT EXISTS micap_log (
		run_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		active_stage_one BIGINT NOT NULL,
		mission_need BIGINT NOT NULL,
		micap BIGINT NOT NULL,
		PRIMARY KEY (run_id, period)
	)`,
	`CREATE TABLE IF NOT EXISTS occupancy (
		run_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		fleet BIGINT NOT NULL,
		condition_f BIGINT NOT NULL,
		depot BIGINT NOT NULL,
		condition_a BIGINT NOT NULL,
		PRIMARY KEY (run_id, period)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
