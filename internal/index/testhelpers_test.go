package index

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/internal/extract"
	"github.com/mklauzo/pdf-search/internal/scanner"
	"github.com/mklauzo/pdf-search/internal/store"
)

// Test PDFs are plain text files: pages separated by form feeds. A file
// starting with "BROKEN" cannot be opened.

type fakeExtractor struct{}

func (fakeExtractor) Open(path string) (extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "BROKEN") {
		return nil, errors.New("cannot parse PDF")
	}
	return &fakeDocument{pages: strings.Split(string(data), "\f")}, nil
}

type fakeDocument struct{ pages []string }

func (d *fakeDocument) NumPages() int { return len(d.pages) }
func (d *fakeDocument) PageText(n int) (string, error) {
	if d.pages[n-1] == "FAIL" {
		return "", errors.New("bad content stream")
	}
	return strings.TrimSpace(d.pages[n-1]), nil
}
func (d *fakeDocument) Words(int) ([]extract.Word, error) { return nil, nil }
func (d *fakeDocument) Close() error                      { return nil }

type fakeRaster struct{}

func (fakeRaster) Rasterize(context.Context, string, int, float64) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}
func (fakeRaster) PageCount(string) (int, error) { return 1, nil }

// fakeOCR "recognizes" a fixed text.
type fakeOCR struct{ text string }

func (o fakeOCR) Recognize(context.Context, image.Image, string) (string, error) {
	return o.text, nil
}

type staticRoot string

func (r staticRoot) Root() string { return string(r) }

type fixture struct {
	root   string
	store  *store.SQLiteStore
	runner *Runner
}

func newFixture(t *testing.T, ocrText string) *fixture {
	t.Helper()
	root := t.TempDir()

	s, err := store.NewSQLiteStore("", store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cfg := extract.DefaultPipelineConfig()
	cfg.MinTextLength = 10
	pipeline := extract.NewPipeline(fakeRaster{}, fakeOCR{text: ocrText}, cfg)

	r, err := NewRunner(RunnerDependencies{
		Store:     s,
		Extractor: fakeExtractor{},
		Pipeline:  pipeline,
		Scanner:   scanner.New(),
		Scope:     staticRoot(root),
	})
	require.NoError(t, err)

	return &fixture{root: root, store: s, runner: r}
}

func (f *fixture) write(t *testing.T, rel string, pages ...string) {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(pages, "\f")), 0o644))
}
