package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// DefaultSnippetTokens is the FTS5 snippet length used when Options leaves it unset.
const DefaultSnippetTokens = 40

// Options configures a SQLiteStore.
type Options struct {
	// SnippetTokens is the maximum snippet length in tokens (1-64).
	SnippetTokens int
	// Retry governs retries of writes that hit a locked database.
	Retry amerrors.RetryConfig
}

// DefaultOptions returns the store defaults.
func DefaultOptions() Options {
	return Options{
		SnippetTokens: DefaultSnippetTokens,
		Retry:         amerrors.DefaultRetryConfig(),
	}
}

// SQLiteStore implements IndexStore on SQLite with FTS5.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	opts   Options
	closed bool
}

// Verify interface implementation at compile time
var _ IndexStore = (*SQLiteStore)(nil)

// validateIntegrity checks an existing database before it is opened.
// Returns nil when the file does not exist yet.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name IN ('files', 'pages', 'pages_fts')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count != 3 {
		return fmt.Errorf("index schema incomplete: %d of 3 tables", count)
	}

	return nil
}

// NewSQLiteStore opens (or creates) the index database at path.
// An empty path creates an in-memory store for testing.
func NewSQLiteStore(path string, opts Options) (*SQLiteStore, error) {
	if opts.SnippetTokens <= 0 || opts.SnippetTokens > 64 {
		opts.SnippetTokens = DefaultSnippetTokens
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = amerrors.DefaultRetryConfig()
	}

	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("index_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, amerrors.New(amerrors.ErrCodeCorruptIndex,
					fmt.Sprintf("index corrupted at %s and cannot be removed", path), removeErr).
					WithSuggestion("Delete the data directory and run 'pdfsearch index --full'.")
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("index_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, full reindex required"))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores most DSN parameters, so pragmas are set here.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path, opts: opts}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		path        TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		indexed_at  TIMESTAMP NOT NULL,
		UNIQUE (path, fingerprint)
	);

	CREATE TABLE IF NOT EXISTS pages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		content     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_file_id ON pages(file_id);

	-- rowid is pages.id
	CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
		content,
		tokenize='unicode61 remove_diacritics 2'
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordExists reports whether (path, fingerprint) is already indexed.
func (s *SQLiteStore) RecordExists(ctx context.Context, path, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, errClosed()
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM files WHERE path = ? AND fingerprint = ? LIMIT 1",
		path, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up file record: %w", err)
	}
	return true, nil
}

// InsertFile creates a file record for (path, fingerprint).
func (s *SQLiteStore) InsertFile(ctx context.Context, path, fingerprint string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errClosed()
	}

	return amerrors.RetryWithResult(ctx, s.opts.Retry, func() (int64, error) {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO files (path, fingerprint, indexed_at) VALUES (?, ?, ?)",
			path, fingerprint, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return 0, classifyWriteError("insert file "+path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, amerrors.StoreError("failed to read file id", err)
		}
		return id, nil
	})
}

// InsertPage stores a page and its full-text entry in one transaction.
func (s *SQLiteStore) InsertPage(ctx context.Context, fileID int64, pageNumber int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	return amerrors.Retry(ctx, s.opts.Retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classifyWriteError("begin page transaction", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			"INSERT INTO pages (file_id, page_number, content) VALUES (?, ?, ?)",
			fileID, pageNumber, text)
		if err != nil {
			return classifyWriteError(fmt.Sprintf("insert page %d", pageNumber), err)
		}
		pageID, err := res.LastInsertId()
		if err != nil {
			return amerrors.StoreError("failed to read page id", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO pages_fts (rowid, content) VALUES (?, ?)", pageID, text); err != nil {
			return classifyWriteError(fmt.Sprintf("index page %d", pageNumber), err)
		}

		if err := tx.Commit(); err != nil {
			return classifyWriteError("commit page", err)
		}
		return nil
	})
}

// Search runs query against the full-text index ordered by FTS5 rank.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	// The snippet length is an int from Options, never user input.
	q := fmt.Sprintf(`
		SELECT f.path, p.page_number,
		       snippet(pages_fts, 0, '<mark>', '</mark>', '…', %d)
		FROM pages_fts
		JOIN pages p ON p.id = pages_fts.rowid
		JOIN files f ON f.id = p.file_id
		WHERE pages_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, s.opts.SnippetTokens)

	rows, err := s.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0)
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Path, &h.Page, &h.Snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err)
	}

	return hits, nil
}

// DeleteFile removes every record for path. Full-text rows go first, then
// pages, then the file, all in one transaction.
func (s *SQLiteStore) DeleteFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	return amerrors.Retry(ctx, s.opts.Retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classifyWriteError("begin delete transaction", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmts := []string{
			`DELETE FROM pages_fts WHERE rowid IN (
				SELECT p.id FROM pages p JOIN files f ON f.id = p.file_id WHERE f.path = ?)`,
			`DELETE FROM pages WHERE file_id IN (SELECT id FROM files WHERE path = ?)`,
			`DELETE FROM files WHERE path = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, path); err != nil {
				return classifyWriteError("delete "+path, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return classifyWriteError("commit delete", err)
		}
		return nil
	})
}

// Clear removes all file, page and full-text records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	return amerrors.Retry(ctx, s.opts.Retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classifyWriteError("begin clear transaction", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, table := range []string{"pages_fts", "pages", "files"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return classifyWriteError("clear "+table, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return classifyWriteError("commit clear", err)
		}
		return nil
	})
}

// IndexedFileCount returns the number of file records.
func (s *SQLiteStore) IndexedFileCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// IndexedPaths returns the set of indexed paths.
func (s *SQLiteStore) IndexedPaths(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT path FROM files")
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths[p] = struct{}{}
	}
	return paths, rows.Err()
}

// PageCountFor returns the number of stored pages for path.
func (s *SQLiteStore) PageCountFor(ctx context.Context, path string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed()
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pages p JOIN files f ON f.id = p.file_id
		WHERE f.path = ?`, path).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages for %s: %w", path, err)
	}
	return n, nil
}

// Files lists every file record with its stored page count, ordered by path.
func (s *SQLiteStore) Files(ctx context.Context) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.path, f.fingerprint, f.indexed_at, COUNT(p.id)
		FROM files f LEFT JOIN pages p ON p.file_id = f.id
		GROUP BY f.id
		ORDER BY f.path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			r       FileRecord
			indexed string
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Fingerprint, &indexed, &r.Pages); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		r.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexed)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Statistics aggregates file, page and character counts.
func (s *SQLiteStore) Statistics(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	stats := &Stats{FilesByDirectory: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.Files); err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&stats.Pages); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(LENGTH(content)), 0) FROM pages").Scan(&stats.TotalChars); err != nil {
		return nil, fmt.Errorf("failed to sum content: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(ROUND(AVG(pc), 1), 0)
		FROM (SELECT COUNT(*) AS pc FROM pages GROUP BY file_id)`).Scan(&stats.AvgPagesPerFile); err != nil {
		return nil, fmt.Errorf("failed to average pages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE
		         WHEN INSTR(path, '/') > 0 THEN SUBSTR(path, 1, INSTR(path, '/') - 1)
		         ELSE '.'
		       END AS dir,
		       COUNT(*)
		FROM files
		GROUP BY dir`)
	if err != nil {
		return nil, fmt.Errorf("failed to group files by directory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dir string
			n   int
		)
		if err := rows.Scan(&dir, &n); err != nil {
			return nil, fmt.Errorf("failed to scan directory count: %w", err)
		}
		stats.FilesByDirectory[dir] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func errClosed() error {
	return amerrors.StoreError("index store is closed", nil)
}

// classifyWriteError maps a driver error onto a coded error. Lock contention
// becomes retryable.
func classifyWriteError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return amerrors.New(amerrors.ErrCodeStoreBusy, "failed to "+op+": database is locked", err)
	case strings.Contains(msg, "constraint failed"):
		return amerrors.StoreError("failed to "+op+": constraint violation", err)
	default:
		return amerrors.StoreError("failed to "+op, err)
	}
}

// classifyQueryError separates FTS5 syntax errors from store failures.
func classifyQueryError(err error) error {
	msg := err.Error()
	for _, marker := range []string{"fts5", "syntax error", "no such column", "unterminated string", "unknown special query"} {
		if strings.Contains(msg, marker) {
			return amerrors.New(amerrors.ErrCodeInvalidQuery, "invalid search query", err)
		}
	}
	return amerrors.New(amerrors.ErrCodeSearchFailed, "search failed", err)
}
