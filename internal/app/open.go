package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mklauzo/pdf-search/internal/async"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/extract"
	"github.com/mklauzo/pdf-search/internal/index"
	"github.com/mklauzo/pdf-search/internal/render"
	"github.com/mklauzo/pdf-search/internal/scanner"
	"github.com/mklauzo/pdf-search/internal/scope"
	"github.com/mklauzo/pdf-search/internal/search"
	"github.com/mklauzo/pdf-search/internal/store"
)

// Open wires a Service from configuration using the production PDF stack:
// ledongthuc/pdf for text, MuPDF for rasterization and Tesseract for OCR.
func Open(cfg *config.Config) (*Service, error) {
	var ocr extract.OCR
	if cfg.Index.OCREnabled {
		ocr = extract.NewTesseractOCR()
	}
	return OpenWith(cfg, extract.NewPDFExtractor(), extract.NewFitzRasterizer(), ocr)
}

// OpenWith wires a Service from configuration with the given PDF
// capabilities. ocr may be nil to disable the OCR fallback.
func OpenWith(cfg *config.Config, extractor extract.TextExtractor, raster extract.Rasterizer, ocr extract.OCR) (*Service, error) {
	dataDir := cfg.DataDirPath()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sc, err := scope.NewManager(cfg.Paths.BaseDir)
	if err != nil {
		return nil, err
	}
	// The index holds paths relative to the scope it was built under.
	if err := sc.Restore(filepath.Join(dataDir, ScopeFileName)); err != nil {
		slog.Warn("scope_restore_failed", slog.String("error", err.Error()))
	}

	storeOpts := store.DefaultOptions()
	storeOpts.SnippetTokens = cfg.Search.SnippetTokens
	st, err := store.NewSQLiteStore(cfg.IndexPath(), storeOpts)
	if err != nil {
		return nil, err
	}

	pipeline := extract.NewPipeline(raster, ocr, extract.PipelineConfig{
		MinTextLength: cfg.Index.MinTextLength,
		OCREnabled:    cfg.Index.OCREnabled,
		OCRDPI:        cfg.Index.OCRDPI,
		OCRLanguage:   cfg.Index.OCRLanguage,
	})
	lister := scanner.New()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Store:     st,
		Extractor: extractor,
		Pipeline:  pipeline,
		Scanner:   lister,
		Scope:     sc,
		Exclude:   cfg.Paths.Exclude,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	renderer, err := render.NewService(raster, extractor, render.Options{
		DPI:       cfg.Render.DPI,
		CacheSize: cfg.Render.CacheSize,
		Workers:   cfg.Render.Workers,
		Padding:   cfg.Render.HighlightPadding,
		Width:     cfg.Render.HighlightWidth,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return NewService(Dependencies{
		Store:     st,
		Scope:     sc,
		Guard:     async.NewGuard(async.GuardConfig{DataDir: dataDir}, runner.RunFunc()),
		Search:    search.NewService(st, cfg.Search.DefaultLimit),
		Render:    renderer,
		Extractor: extractor,
		Lister:    lister,
		Exclude:   cfg.Paths.Exclude,
		DataDir:   dataDir,
	})
}
