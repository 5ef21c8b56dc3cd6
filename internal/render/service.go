// Package render produces PNG page images with optional red outlines around
// words matching a search query.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/extract"
)

// Defaults for Options fields left at zero.
const (
	DefaultDPI       = 150
	DefaultCacheSize = 50
	DefaultWorkers   = 2
	DefaultPadding   = 2
	DefaultWidth     = 2
)

// Options configures a Service.
type Options struct {
	DPI       float64
	CacheSize int
	// Workers bounds concurrent rasterizations.
	Workers int
	Padding float64
	Width   int
}

// DefaultOptions returns the render defaults.
func DefaultOptions() Options {
	return Options{
		DPI:       DefaultDPI,
		CacheSize: DefaultCacheSize,
		Workers:   DefaultWorkers,
		Padding:   DefaultPadding,
		Width:     DefaultWidth,
	}
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	return o
}

// Result is a rendered page. Results are shared through the cache; callers
// must not modify Data.
type Result struct {
	// Data is the PNG encoding of the page.
	Data []byte
	// Matches is the number of highlighted words.
	Matches int
	// Warning is set when highlighting failed and the plain page was returned.
	Warning string
}

type cacheKey struct {
	path  string
	page  int
	query string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s\x00%d\x00%s", k.path, k.page, k.query)
}

// Service renders pages. It is safe for concurrent use.
type Service struct {
	raster    extract.Rasterizer
	extractor extract.TextExtractor
	opts      Options

	cache  *lru.Cache[cacheKey, *Result]
	group  singleflight.Group
	worker *semaphore.Weighted
}

// NewService creates a render service. extractor supplies word boxes for
// highlighting; it may be nil, in which case queries are ignored.
func NewService(raster extract.Rasterizer, extractor extract.TextExtractor, opts Options) (*Service, error) {
	if raster == nil {
		return nil, fmt.Errorf("rasterizer is required")
	}
	opts = opts.withDefaults()

	cache, err := lru.New[cacheKey, *Result](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	return &Service{
		raster:    raster,
		extractor: extractor,
		opts:      opts,
		cache:     cache,
		worker:    semaphore.NewWeighted(int64(opts.Workers)),
	}, nil
}

// RenderPage renders page (1-based) of the PDF at absPath. A non-empty query
// outlines matching words. Rasterization failures are RenderErrors; a
// highlighting failure falls back to the plain page with a Warning.
func (s *Service) RenderPage(ctx context.Context, absPath string, page int, query string) (*Result, error) {
	if page < 1 {
		return nil, amerrors.ValidationError(fmt.Sprintf("page must be at least 1, got %d", page), nil)
	}

	key := cacheKey{path: absPath, page: page, query: strings.TrimSpace(query)}
	if res, ok := s.cache.Get(key); ok {
		return res, nil
	}

	// The shared render must not inherit one caller's cancellation; each
	// caller stops waiting on its own ctx instead.
	renderCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.String(), func() (any, error) {
		if res, ok := s.cache.Get(key); ok {
			return res, nil
		}
		res, err := s.render(renderCtx, key)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, res)
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CacheLen returns the number of cached pages.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// Purge drops all cached pages.
func (s *Service) Purge() {
	s.cache.Purge()
}

func (s *Service) render(ctx context.Context, key cacheKey) (*Result, error) {
	if err := s.worker.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.worker.Release(1)

	img, err := s.raster.Rasterize(ctx, key.path, key.page, s.opts.DPI)
	if err != nil {
		return nil, amerrors.RenderError(fmt.Sprintf("cannot render page %d", key.page), err)
	}
	if img == nil {
		return nil, amerrors.RenderError(fmt.Sprintf("page %d produced no image", key.page), nil)
	}

	res := &Result{}
	if key.query != "" && s.extractor != nil {
		highlighted, n, err := s.highlight(img, key)
		if err != nil {
			slog.Warn("render_highlight_failed",
				slog.String("path", key.path),
				slog.Int("page", key.page),
				slog.String("error", err.Error()))
			res.Warning = "highlighting failed: " + err.Error()
		} else {
			img = highlighted
			res.Matches = n
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, amerrors.RenderError("cannot encode PNG", err)
	}
	res.Data = buf.Bytes()

	slog.Debug("render_page_completed",
		slog.String("path", key.path),
		slog.Int("page", key.page),
		slog.Int("matches", res.Matches),
		slog.Int("bytes", len(res.Data)))
	return res, nil
}

func (s *Service) highlight(img image.Image, key cacheKey) (image.Image, int, error) {
	terms := QueryTerms(key.query)
	if len(terms) == 0 {
		return img, 0, nil
	}

	doc, err := s.extractor.Open(key.path)
	if err != nil {
		return nil, 0, err
	}
	defer doc.Close()

	words, err := doc.Words(key.page)
	if err != nil {
		return nil, 0, err
	}

	matches := MatchWords(words, terms)
	if len(matches) == 0 {
		return img, 0, nil
	}

	dst := toRGBA(img)
	for _, w := range matches {
		DrawOutline(dst, MapWord(w, s.opts.DPI, s.opts.Padding), s.opts.Width, HighlightColor)
	}
	return dst, len(matches), nil
}
