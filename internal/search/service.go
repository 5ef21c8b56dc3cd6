// Package search runs ranked full-text queries over the page index.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mklauzo/pdf-search/internal/store"
)

// DefaultLimit is the result cap used when a caller passes no limit.
const DefaultLimit = 100

// Searcher is the store capability Service needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]store.SearchHit, error)
}

// Service runs full-text queries against the index.
type Service struct {
	store        Searcher
	defaultLimit int
}

// NewService creates a search service. A non-positive defaultLimit falls back
// to DefaultLimit.
func NewService(s Searcher, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Service{store: s, defaultLimit: defaultLimit}
}

// Search returns ranked page hits, best first. A blank query yields an empty
// list without touching the store. FTS syntax errors surface as
// store.ErrInvalidQuery.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []store.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	start := time.Now()
	hits, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	slog.Debug("search_completed",
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("results", len(hits)),
		slog.Duration("elapsed", time.Since(start)))
	return hits, nil
}
