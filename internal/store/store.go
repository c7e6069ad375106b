// Package store persists catalog documents in SQLite with a synchronized
// FTS5 lexical index and an append-only scraping log. The documents table
// is the source of truth; the lexical index is derived and rebuildable,
// which is what makes index corruption always recoverable without data
// loss.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// Filters narrow a search to exact category and/or source organisation
// matches. Empty fields match everything.
type Filters struct {
	Category  string
	SourceOrg string
}

// Store is the durable document store. A single instance is shared across
// all requests for the process lifetime.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	lock   *flock.Flock
	closed bool
}

// Open opens (or creates) the store at path and verifies its integrity
// before accepting traffic. An empty path opens an in-memory store for
// testing. Open fails if the primary documents table is structurally
// damaged; a damaged lexical index is rebuilt silently instead.
func Open(path string) (*Store, error) {
	var dsn string
	var lock *flock.Flock

	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}

		// Guard the data directory against a second writer process.
		lock = flock.New(path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire store lock: %w", err)
		}
		if !locked {
			return nil, apperrors.New(apperrors.ErrCodeStoreLocked,
				fmt.Sprintf("store at %s is locked by another process", path), nil)
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		unlock(lock)
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer prevents lock contention; WAL allows readers alongside.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores DSN pragma parameters, so set them
	// explicitly. busy_timeout gives writers a bounded wait under
	// contention instead of an immediate SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			unlock(lock)
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path, lock: lock}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		unlock(lock)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	if err := s.healthCheck(context.Background()); err != nil {
		_ = db.Close()
		unlock(lock)
		return nil, err
	}

	return s, nil
}

func unlock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

// initSchema creates the primary table, the derived FTS5 index and the
// scraping log. Timestamps are stored as Unix nanoseconds so window
// filters and ordering are plain integer comparisons.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		category          TEXT NOT NULL,
		url               TEXT NOT NULL UNIQUE,
		content           TEXT NOT NULL,
		summary           TEXT NOT NULL DEFAULT '',
		last_updated      INTEGER,
		source_org        TEXT NOT NULL DEFAULT '',
		tags              TEXT NOT NULL DEFAULT '[]',
		compliance_level  TEXT CHECK (compliance_level IN ('mandatory','recommended','optional') OR compliance_level = ''),
		related_standards TEXT NOT NULL DEFAULT '[]',
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
		doc_id UNINDEXED,
		title,
		content,
		summary,
		tags,
		tokenize='unicode61'
	);

	CREATE TABLE IF NOT EXISTS scraping_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		url           TEXT NOT NULL,
		status        TEXT NOT NULL CHECK (status IN ('success','failed','skipped')),
		error_message TEXT,
		scraped_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
	CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// healthCheck verifies connectivity and structural integrity. Damage to
// the primary table is fatal; damage confined to the derived index is
// repaired by a rebuild.
func (s *Store) healthCheck(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return apperrors.New(apperrors.ErrCodeStoreDamaged, "integrity check failed", err)
	}

	if result != "ok" {
		// The documents table decides whether this is fatal.
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
			return apperrors.New(apperrors.ErrCodeStoreDamaged,
				fmt.Sprintf("primary document table is damaged: %s", result), err)
		}

		slog.Warn("lexical index damaged at startup, rebuilding",
			slog.String("integrity_check", result))
		if err := s.RebuildLexicalIndex(ctx); err != nil {
			return apperrors.New(apperrors.ErrCodeStoreDamaged, "lexical index rebuild failed", err)
		}
		return nil
	}

	// Basic connectivity probe against the primary table.
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return apperrors.New(apperrors.ErrCodeStoreDamaged, "primary document table unreadable", err)
	}

	return nil
}

// Count returns the number of documents in the primary table.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// IndexedCount returns the number of entries in the lexical index.
func (s *Store) IndexedCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fts_documents").Scan(&n)
	return n, err
}

// Close checkpoints the WAL, closes the database and releases the data
// directory lock. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		if err := s.db.Close(); err != nil {
			unlock(s.lock)
			return err
		}
	}
	unlock(s.lock)
	return nil
}

func errClosed() error {
	return fmt.Errorf("store is closed")
}
