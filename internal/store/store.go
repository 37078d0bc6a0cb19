// Package store handles SQLite persistence for fetched dataset sources.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Source is a cached copy of a fetched CSV document.
type Source struct {
	URL       string
	Body      []byte
	FetchedAt time.Time
}

// Store wraps SQLite access for cached sources.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			url TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetSource returns the cached body for url. ok is false when nothing is cached.
func (s *Store) GetSource(ctx context.Context, url string) (Source, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT url, body, fetched_at FROM sources WHERE url = ?`, url)
	var src Source
	var fetchedAt string
	if err := row.Scan(&src.URL, &src.Body, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, false, nil
		}
		return Source{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return Source{}, false, err
	}
	src.FetchedAt = parsed
	return src, true, nil
}

// PutSource stores or replaces the cached body for url.
func (s *Store) PutSource(ctx context.Context, src Source) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		src.URL,
		src.Body,
		src.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Clear removes every cached source and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
