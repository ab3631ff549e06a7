// Package store persists LLM responses and run history in SQLite. The
// response cache makes re-runs over unchanged input deterministic.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"refactory/internal/refactor"
)

// Store wraps the SQLite database backing the response cache and the
// outcome history.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes the database at the given path, creating parent
// directories and tables as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS llm_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_hash TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_hash, attempt)
	);
	CREATE INDEX IF NOT EXISTS idx_llm_cache_hash ON llm_cache(source_hash);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		language TEXT NOT NULL,
		state TEXT NOT NULL,
		reason TEXT,
		attempts INTEGER NOT NULL,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_path ON outcomes(path);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Get implements refactor.Cache.
func (s *Store) Get(ctx context.Context, sourceHash string, attempt int) (string, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM llm_cache WHERE source_hash = ? AND attempt = ?`,
		sourceHash, attempt).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return response, true, nil
}

// Put implements refactor.Cache. Re-inserting the same key keeps the
// first response so replays stay stable.
func (s *Store) Put(ctx context.Context, sourceHash string, attempt int, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_cache (source_hash, attempt, response) VALUES (?, ?, ?)
		 ON CONFLICT(source_hash, attempt) DO NOTHING`,
		sourceHash, attempt, response)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// RecordOutcome appends a terminal outcome to the run history. The full
// outcome is kept as JSON in the detail column.
func (s *Store) RecordOutcome(ctx context.Context, out *refactor.Outcome) error {
	detail, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcomes (path, language, state, reason, attempts, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		out.Path, out.Language, string(out.State), out.Reason, len(out.Attempts), string(detail))
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// OutcomeRecord is one row of run history.
type OutcomeRecord struct {
	Path      string
	Language  string
	State     string
	Reason    string
	Attempts  int
	CreatedAt time.Time
}

// History returns the most recent outcomes, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, language, state, COALESCE(reason, ''), attempts, created_at
		 FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var r OutcomeRecord
		if err := rows.Scan(&r.Path, &r.Language, &r.State, &r.Reason, &r.Attempts, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
