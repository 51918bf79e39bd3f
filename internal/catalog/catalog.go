// Package catalog persists run history and processed-file records in
// a local SQLite database. Its main job besides bookkeeping is dedup:
// a PDF whose content hash is already cataloged is skipped on later
// runs unless a rescan is requested.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	files_total  INTEGER NOT NULL DEFAULT 0,
	files_failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	path           TEXT NOT NULL,
	content_hash   TEXT NOT NULL,
	document_count INTEGER NOT NULL DEFAULT 0,
	output_path    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	processed_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_hash ON files(content_hash, status);
`

// File statuses recorded in the catalog.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Store is the SQLite-backed catalog.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the catalog database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// BeginRun records the start of a batch run.
func (s *Store) BeginRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records run completion and its aggregate counters.
func (s *Store) FinishRun(ctx context.Context, runID string, filesTotal, filesFailed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, files_total = ?, files_failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), filesTotal, filesFailed, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// FileRecord is one processed (or failed, or skipped) input file.
type FileRecord struct {
	RunID         string
	Path          string
	ContentHash   string
	DocumentCount int
	OutputPath    string
	Status        string
}

// RecordFile appends a file outcome to the catalog.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (run_id, path, content_hash, document_count, output_path, status, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Path, rec.ContentHash, rec.DocumentCount, rec.OutputPath, rec.Status,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record file %s: %w", rec.Path, err)
	}
	return nil
}

// Seen reports whether a file with this content hash was already
// processed successfully in any run.
func (s *Store) Seen(ctx context.Context, contentHash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM files WHERE content_hash = ? AND status = ?`,
		contentHash, StatusProcessed).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return n > 0, nil
}
