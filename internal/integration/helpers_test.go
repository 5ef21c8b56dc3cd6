// Package integration exercises indexing, search, scope and watch mode
// together through the control surface, with the PDF capabilities replaced by
// a text-file fake.
package integration

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/extract"
)

// Test PDFs are text files with pages separated by form feeds. A page
// starting with "SCAN" has no text layer and is read by the fake OCR.

type textExtractor struct{}

func (textExtractor) Open(path string) (extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &textDoc{path: path, pages: strings.Split(string(data), "\f")}, nil
}

type textDoc struct {
	path  string
	pages []string
}

func (d *textDoc) NumPages() int { return len(d.pages) }

func (d *textDoc) PageText(n int) (string, error) {
	page := d.pages[n-1]
	if strings.HasPrefix(page, "SCAN") {
		return "", nil
	}
	return strings.TrimSpace(page), nil
}

func (d *textDoc) Words(n int) ([]extract.Word, error) {
	var words []extract.Word
	for i, f := range strings.Fields(d.pages[n-1]) {
		x := float64(10 + i*50)
		words = append(words, extract.Word{Text: f, X0: x, Top: 10, X1: x + 40, Bottom: 20})
	}
	return words, nil
}

func (d *textDoc) Close() error { return nil }

// scanRaster returns an image that remembers its file and page so the fake
// OCR can read the page text again.
type scanRaster struct{}

func (scanRaster) Rasterize(_ context.Context, path string, page int, _ float64) (image.Image, error) {
	return &pageImage{Gray: image.NewGray(image.Rect(0, 0, 10, 10)), path: path, page: page}, nil
}

func (scanRaster) PageCount(path string) (int, error) {
	doc, err := textExtractor{}.Open(path)
	if err != nil {
		return 0, err
	}
	return doc.NumPages(), nil
}

type pageImage struct {
	*image.Gray
	path string
	page int
}

type scanOCR struct{}

func (scanOCR) Recognize(_ context.Context, img image.Image, _ string) (string, error) {
	pi, ok := img.(*pageImage)
	if !ok {
		return "", nil
	}
	data, err := os.ReadFile(pi.path)
	if err != nil {
		return "", err
	}
	page := strings.Split(string(data), "\f")[pi.page-1]
	return strings.TrimSpace(strings.TrimPrefix(page, "SCAN")), nil
}

type env struct {
	base string
	cfg  *config.Config
	svc  *app.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	base := t.TempDir()

	cfg, err := config.Load(base)
	require.NoError(t, err)
	cfg.Index.MinTextLength = 5
	cfg.Watch.Debounce = "50ms"

	svc, err := app.OpenWith(cfg, textExtractor{}, scanRaster{}, scanOCR{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	return &env{base: base, cfg: cfg, svc: svc}
}

func (e *env) write(t *testing.T, rel string, pages ...string) {
	t.Helper()
	p := filepath.Join(e.base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(pages, "\f")), 0o644))
}

func (e *env) index(t *testing.T, full bool) {
	t.Helper()
	res := e.svc.TriggerIndexing(context.Background(), full)
	require.True(t, res.Started, res.Message)
	e.wait(t)
}

func (e *env) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := e.svc.WaitForIndexing(ctx)
	require.NoError(t, err)
}

// files returns the sorted distinct files with hits for query.
func (e *env) files(t *testing.T, query string) []string {
	t.Helper()
	resp, err := e.svc.Search(context.Background(), query, 100)
	require.NoError(t, err)
	seen := map[string]bool{}
	var files []string
	for _, h := range resp.Results {
		if !seen[h.Path] {
			seen[h.Path] = true
			files = append(files, h.Path)
		}
	}
	return files
}
