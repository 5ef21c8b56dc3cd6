// Package store persists indexed PDF files and pages in SQLite with an FTS5
// full-text index over page content.
package store

import (
	"context"
	"time"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

// ErrInvalidQuery is returned by Search when FTS5 rejects the query syntax.
var ErrInvalidQuery = amerrors.ErrBadQuery

// FileRecord is one indexed version of a PDF.
// Paths are relative to the scope root at indexing time, with forward slashes.
type FileRecord struct {
	ID          int64
	Path        string
	Fingerprint string
	IndexedAt   time.Time
	Pages       int
}

// SearchHit is a single ranked full-text match.
type SearchHit struct {
	Path    string `json:"file"`
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// Stats summarizes the index contents.
type Stats struct {
	Files            int            `json:"files"`
	Pages            int            `json:"pages"`
	TotalChars       int64          `json:"total_chars"`
	AvgPagesPerFile  float64        `json:"avg_pages_per_file"`
	FilesByDirectory map[string]int `json:"files_by_directory"`
}

// IndexStore is the persistence contract used by the indexer, search and
// control surfaces.
type IndexStore interface {
	// RecordExists reports whether (path, fingerprint) is already indexed.
	RecordExists(ctx context.Context, path, fingerprint string) (bool, error)

	// InsertFile creates a file record and returns its id.
	InsertFile(ctx context.Context, path, fingerprint string) (int64, error)

	// InsertPage stores a page and its full-text entry atomically.
	InsertPage(ctx context.Context, fileID int64, pageNumber int, text string) error

	// Search runs a ranked FTS5 match, best first.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// DeleteFile removes every record for path with its pages and full-text
	// entries. It is a no-op when path is not indexed.
	DeleteFile(ctx context.Context, path string) error

	// Clear removes all records.
	Clear(ctx context.Context) error

	IndexedFileCount(ctx context.Context) (int, error)
	IndexedPaths(ctx context.Context) (map[string]struct{}, error)
	PageCountFor(ctx context.Context, path string) (int, error)
	Files(ctx context.Context) ([]FileRecord, error)
	Statistics(ctx context.Context) (*Stats, error)

	Close() error
}
