package app

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/internal/config"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

func TestService_IndexAndSearch(t *testing.T) {
	// Given: two PDFs in the base directory
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha beta gamma", "delta epsilon")
	h.write(t, "reports/b.pdf", "beta report")

	// When: indexing and searching
	h.index(t, false)
	resp, err := h.svc.Search(context.Background(), "beta", 0)

	// Then: both files match
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.Len(t, resp.Results, 2)

	status := h.svc.IndexingStatus()
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.Indexed)
	assert.Equal(t, 2, status.ProcessedFiles)
}

func TestService_Search_InvalidSyntaxIsReported(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha beta gamma")
	h.index(t, false)

	resp, err := h.svc.Search(context.Background(), `"broken`, 10)

	require.NoError(t, err)
	assert.Equal(t, MsgInvalidSearchQuery, resp.Error)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestService_Search_EmptyQuery(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Search(context.Background(), "  ", 10)

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Error)
}

func TestService_Stats(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha beta gamma", "delta epsilon")
	h.write(t, "reports/b.pdf", "beta report")
	h.index(t, false)

	stats, err := h.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, map[string]int{".": 1, "reports": 1}, stats.FilesByDirectory)
}

func TestService_TriggerIndexing_Messages(t *testing.T) {
	h := newHarness(t)

	res := h.svc.TriggerIndexing(context.Background(), true)
	assert.True(t, res.Started)
	assert.Equal(t, MsgReindexingStarted, res.Message)
	assert.NotEmpty(t, res.TaskID)

	_, err := h.svc.WaitForIndexing(context.Background())
	require.NoError(t, err)

	res = h.svc.TriggerIndexing(context.Background(), false)
	assert.Equal(t, MsgIndexingStarted, res.Message)
}

func TestService_Scope_SetTriggersFullReindex(t *testing.T) {
	// Given: an index over the whole base
	h := newHarness(t)
	h.write(t, "top.pdf", "top level words")
	h.write(t, "sub/inner.pdf", "inner words")
	h.index(t, false)

	// When: narrowing the scope to sub
	res, err := h.svc.SetScope(context.Background(), "sub")
	require.NoError(t, err)
	assert.Equal(t, MsgScopeChanged, res.Message)
	_, err = h.svc.WaitForIndexing(context.Background())
	require.NoError(t, err)

	// Then: only the sub directory is indexed, relative to the new root
	info := h.svc.GetScope()
	assert.Equal(t, "sub", info.Path)
	assert.Equal(t, filepath.Join(h.svc.scope.Base(), "sub"), info.FullPath)

	files, err := h.svc.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"inner.pdf"}, files)

	resp, err := h.svc.Search(context.Background(), "words", 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "inner.pdf", resp.Results[0].Path)
}

func TestService_SetScope_SurvivesReopen(t *testing.T) {
	// Given: a scope changed to a subdirectory
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.base, "sub"), 0o755))
	_, err := h.svc.SetScope(context.Background(), "sub")
	require.NoError(t, err)
	_, err = h.svc.WaitForIndexing(context.Background())
	require.NoError(t, err)

	// When: the service is opened again over the same base
	cfg := config.NewConfig()
	cfg.Paths.BaseDir = h.base
	reopened, err := OpenWith(cfg, textExtractor{}, blankRaster{}, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close(context.Background()) }()

	// Then: the scope the index was built under is active
	assert.Equal(t, "sub", reopened.GetScope().Path)
}

func TestService_SetScope_RejectsEscape(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.SetScope(context.Background(), "../elsewhere")

	require.Error(t, err)
	assert.ErrorIs(t, err, amerrors.ErrScope)
	assert.Equal(t, "", h.svc.GetScope().Path)
}

func TestService_ListDirectories_TwoLevels(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.base, "a", "b", "c"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(h.base, "d"), 0o755))

	dirs, err := h.svc.ListDirectories()

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a/b", "d"}, dirs)
}

func TestService_FilePageCount(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.pdf", "one", "two", "three")

	pc, err := h.svc.FilePageCount("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, pc.PageCount)

	_, err = h.svc.FilePageCount("../a.pdf")
	assert.Equal(t, amerrors.ErrCodeInvalidPath, amerrors.GetCode(err))

	_, err = h.svc.FilePageCount("missing.pdf")
	assert.Equal(t, amerrors.ErrCodeFileNotFound, amerrors.GetCode(err))

	h.write(t, "bad.pdf", "BROKEN")
	_, err = h.svc.FilePageCount("bad.pdf")
	assert.Equal(t, amerrors.ErrCodeFileCorrupt, amerrors.GetCode(err))
}

func TestService_PageImage(t *testing.T) {
	// Given: a one-page file
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha beta")

	// When: rendering with a matching query
	img, err := h.svc.PageImage(context.Background(), "a.pdf", 1, "beta")

	// Then: a PNG with one highlight comes back
	require.NoError(t, err)
	assert.Equal(t, 1, img.Matches)
	_, err = png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
}

func TestService_PageImage_Validation(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha")

	_, err := h.svc.PageImage(context.Background(), "a.pdf", 0, "")
	assert.Equal(t, amerrors.ErrCodeInvalidInput, amerrors.GetCode(err))

	_, err = h.svc.PageImage(context.Background(), "../../etc/passwd", 1, "")
	assert.Equal(t, amerrors.ErrCodeInvalidPath, amerrors.GetCode(err))

	_, err = h.svc.PageImage(context.Background(), "nope.pdf", 1, "")
	assert.Equal(t, amerrors.ErrCodeFileNotFound, amerrors.GetCode(err))
}

func TestService_DetectChanges(t *testing.T) {
	// Given: an index of a and b
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha text")
	h.write(t, "b.pdf", "beta text")
	h.index(t, false)

	// When: b is deleted and c is added
	require.NoError(t, os.Remove(filepath.Join(h.base, "b.pdf")))
	h.write(t, "c.pdf", "gamma text")
	cs, err := h.svc.DetectChanges(context.Background())

	// Then: one new and one deleted file are reported
	require.NoError(t, err)
	assert.True(t, cs.HasChanges)
	assert.Equal(t, 1, cs.NewCount)
	assert.Equal(t, 1, cs.DeletedCount)
	assert.Equal(t, []string{"c.pdf"}, cs.New)
	assert.Equal(t, []string{"b.pdf"}, cs.Deleted)
}

func TestService_DetectChanges_NoChanges(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.pdf", "alpha text")
	h.index(t, false)

	cs, err := h.svc.DetectChanges(context.Background())

	require.NoError(t, err)
	assert.False(t, cs.HasChanges)
	assert.Equal(t, 0, cs.NewCount)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}
