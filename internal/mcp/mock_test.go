package mcp

import (
	"context"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/async"
	"github.com/mklauzo/pdf-search/internal/index"
	"github.com/mklauzo/pdf-search/internal/store"
)

// mockController records calls and returns canned values.
type mockController struct {
	trigger     app.TriggerResult
	lastFull    bool
	status      async.RunSnapshot
	searchResp  *app.SearchResponse
	searchErr   error
	lastQuery   string
	lastLimit   int
	stats       *store.Stats
	scope       app.ScopeInfo
	setScopeErr error
	lastScope   string
	dirs        []string
	files       []string
	pageCount   *app.PageCount
	pageErr     error
	image       *app.PageImage
	imageErr    error
	changes     index.ChangeSet
}

func (m *mockController) TriggerIndexing(_ context.Context, full bool) app.TriggerResult {
	m.lastFull = full
	return m.trigger
}

func (m *mockController) IndexingStatus() async.RunSnapshot { return m.status }

func (m *mockController) Search(_ context.Context, query string, limit int) (*app.SearchResponse, error) {
	m.lastQuery = query
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp == nil {
		return &app.SearchResponse{Results: []store.SearchHit{}}, nil
	}
	return m.searchResp, nil
}

func (m *mockController) Stats(context.Context) (*store.Stats, error) {
	if m.stats == nil {
		return &store.Stats{FilesByDirectory: map[string]int{}}, nil
	}
	return m.stats, nil
}

func (m *mockController) GetScope() app.ScopeInfo { return m.scope }

func (m *mockController) SetScope(_ context.Context, path string) (app.TriggerResult, error) {
	m.lastScope = path
	if m.setScopeErr != nil {
		return app.TriggerResult{}, m.setScopeErr
	}
	return app.TriggerResult{Started: true, Message: app.MsgScopeChanged}, nil
}

func (m *mockController) ListDirectories() ([]string, error) { return m.dirs, nil }

func (m *mockController) ListFiles(context.Context) ([]string, error) { return m.files, nil }

func (m *mockController) FilePageCount(string) (*app.PageCount, error) {
	return m.pageCount, m.pageErr
}

func (m *mockController) PageImage(context.Context, string, int, string) (*app.PageImage, error) {
	return m.image, m.imageErr
}

func (m *mockController) DetectChanges(context.Context) (index.ChangeSet, error) {
	return m.changes, nil
}

var _ Controller = (*mockController)(nil)
