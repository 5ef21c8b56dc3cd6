package app

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/extract"
)

// Test PDFs are text files with pages separated by form feeds.

type textExtractor struct{}

func (textExtractor) Open(path string) (extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "BROKEN") {
		return nil, errors.New("not a PDF")
	}
	return &textDoc{pages: strings.Split(string(data), "\f")}, nil
}

type textDoc struct{ pages []string }

func (d *textDoc) NumPages() int { return len(d.pages) }

func (d *textDoc) PageText(n int) (string, error) {
	return strings.TrimSpace(d.pages[n-1]), nil
}

// Words lays the page's words out on one line, 50 points apart.
func (d *textDoc) Words(n int) ([]extract.Word, error) {
	var words []extract.Word
	for i, f := range strings.Fields(d.pages[n-1]) {
		x := float64(10 + i*50)
		words = append(words, extract.Word{Text: f, X0: x, Top: 10, X1: x + 40, Bottom: 20})
	}
	return words, nil
}

func (d *textDoc) Close() error { return nil }

type blankRaster struct{}

func (blankRaster) Rasterize(context.Context, string, int, float64) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 100, 100)), nil
}

func (blankRaster) PageCount(string) (int, error) { return 1, nil }

type harness struct {
	base string
	svc  *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()

	cfg := config.NewConfig()
	cfg.Paths.BaseDir = base
	cfg.Index.MinTextLength = 5

	svc, err := OpenWith(cfg, textExtractor{}, blankRaster{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	return &harness{base: base, svc: svc}
}

func (h *harness) write(t *testing.T, rel string, pages ...string) {
	t.Helper()
	p := filepath.Join(h.base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(pages, "\f")), 0o644))
}

// index runs an indexing pass to completion.
func (h *harness) index(t *testing.T, full bool) {
	t.Helper()
	res := h.svc.TriggerIndexing(context.Background(), full)
	require.True(t, res.Started, res.Message)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := h.svc.WaitForIndexing(ctx)
	require.NoError(t, err)
}
