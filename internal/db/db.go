// Package db provides SQLite database access for storyteller.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/survivalburger/storyteller/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite connection.
type DB struct {
	*sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	return open(path, "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
}

// OpenInMemory opens a private in-memory database. Used by tests.
func OpenInMemory() (*DB, error) {
	return open(":memory:", ":memory:")
}

func open(path, dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writes.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{
		DB:     conn,
		path:   path,
		logger: logging.Component("db"),
	}, nil
}

// Path returns the database location.
func (db *DB) Path() string {
	return db.path
}

// MigrateUp applies pending migrations and returns how many ran.
func (db *DB) MigrateUp(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		version := strings.TrimSuffix(filepath.Base(name), ".sql")

		var exists int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", version, err)
		}

		db.logger.Debug().Str("version", version).Msg("migration applied")
		applied++
	}

	return applied, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
