// Package history archives validation runs in SQLite so a candidate can be
// tracked across versions. Run ids and timestamps live only here; the
// report body itself stays free of run-varying data.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/opentrust/otpconform/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one archived validation run.
type Entry struct {
	ID        string         `json:"id"`
	Candidate string         `json:"candidate"`
	Verdict   report.Verdict `json:"verdict"`
	Score     float64        `json:"score"`
	Passed    int            `json:"passed"`
	Total     int            `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is a SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at path.
//
// The database is configured with WAL mode, a busy timeout, and foreign key
// enforcement, and the schema is applied idempotently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	// Single writer avoids SQLITE_BUSY on concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one run. A missing ID gets a fresh uuid and a zero
// CreatedAt gets the current UTC time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, candidate, verdict, score, passed, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Candidate, string(e.Verdict), e.Score, e.Passed, e.Total,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns up to limit archived runs, newest first. A non-positive
// limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate, verdict, score, passed, total, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var verdict, created string
		if err := rows.Scan(&e.ID, &e.Candidate, &verdict, &e.Score, &e.Passed, &e.Total, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Verdict = report.Verdict(verdict)
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
