// Package store is the SQLite operation journal. It records which path every
// call took and never stores document text.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/valpere/editeur/internal"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// Record inserts rec, filling ID and CreatedAt when they are zero.
func (s *Store) Record(ctx context.Context, rec internal.OperationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, operation, path, provider, model, failure_kind, input_runes, latency_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Path, rec.Provider, rec.Model, rec.FailureKind, rec.InputRunes, rec.LatencyMs, rec.CreatedAt)
	return err
}

// List returns the most recent records first. limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]internal.OperationRecord, error) {
	query := `SELECT id, operation, path, provider, model, failure_kind, input_runes, latency_ms, created_at FROM operations ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []internal.OperationRecord
	for rows.Next() {
		var r internal.OperationRecord
		if err := rows.Scan(&r.ID, &r.Operation, &r.Path, &r.Provider, &r.Model, &r.FailureKind, &r.InputRunes, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// PathCount is the number of calls of one operation that took one path.
type PathCount struct {
	Operation string `json:"operation" yaml:"operation"`
	Path      string `json:"path" yaml:"path"`
	Count     int    `json:"count" yaml:"count"`
	AvgMs     int64  `json:"avg_latency_ms" yaml:"avg_latency_ms"`
}

// Stats summarises the journal.
type Stats struct {
	Total  int         `json:"total" yaml:"total"`
	ByPath []PathCount `json:"by_path" yaml:"by_path"`
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operation, path, COUNT(*), CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)
		FROM operations
		GROUP BY operation, path
		ORDER BY operation, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Operation, &pc.Path, &pc.Count, &pc.AvgMs); err != nil {
			return nil, err
		}
		stats.Total += pc.Count
		stats.ByPath = append(stats.ByPath, pc)
	}
	return stats, rows.Err()
}

// Clear removes every record and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM operations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
