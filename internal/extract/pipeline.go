package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

// PipelineConfig configures the OCR fallback.
type PipelineConfig struct {
	// MinTextLength is the native text length, in characters, below which a
	// page is presumed scanned.
	MinTextLength int
	OCREnabled    bool
	OCRDPI        float64
	OCRLanguage   string
}

// DefaultPipelineConfig returns the extraction defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinTextLength: 50,
		OCREnabled:    true,
		OCRDPI:        300,
		OCRLanguage:   "pol",
	}
}

// Pipeline extracts page text with an OCR fallback.
type Pipeline struct {
	raster Rasterizer
	ocr    OCR
	cfg    PipelineConfig
}

// NewPipeline creates a Pipeline. raster and ocr may be nil when OCR is disabled.
func NewPipeline(raster Rasterizer, ocr OCR, cfg PipelineConfig) *Pipeline {
	if raster == nil || ocr == nil {
		cfg.OCREnabled = false
	}
	return &Pipeline{raster: raster, ocr: ocr, cfg: cfg}
}

// IsSufficient reports whether native text is long enough to skip OCR.
func (p *Pipeline) IsSufficient(text string) bool {
	return utf8.RuneCountInString(text) >= p.cfg.MinTextLength
}

// PageText returns the text of page (1-based) in doc. Native text is used
// when sufficient; otherwise the page is OCRed.
func (p *Pipeline) PageText(ctx context.Context, doc Document, path string, page int) (PageText, error) {
	native, err := doc.PageText(page)
	if err != nil {
		return PageText{}, amerrors.ExtractionError(fmt.Sprintf("page %d: text extraction failed", page), err)
	}

	if p.IsSufficient(native) || !p.cfg.OCREnabled {
		return textOrNone(native, SourceNative), nil
	}

	ocrText, err := p.OCRPageText(ctx, path, page)
	if err != nil {
		if native != "" {
			slog.Warn("ocr_failed_keeping_native_text",
				slog.String("path", path),
				slog.Int("page", page),
				slog.String("error", err.Error()))
			return PageText{Text: native, Source: SourceNative}, nil
		}
		return PageText{}, err
	}

	return textOrNone(ocrText, SourceOCR), nil
}

// OCRPageText rasterizes exactly one page at the OCR resolution and
// recognizes it. A page that rasterizes to nothing yields "".
func (p *Pipeline) OCRPageText(ctx context.Context, path string, page int) (string, error) {
	if !p.cfg.OCREnabled {
		return "", nil
	}

	img, err := p.raster.Rasterize(ctx, path, page, p.cfg.OCRDPI)
	if err != nil {
		return "", amerrors.ExtractionError(fmt.Sprintf("page %d: rasterization failed", page), err)
	}
	if img == nil {
		return "", nil
	}

	text, err := p.ocr.Recognize(ctx, img, p.cfg.OCRLanguage)
	if err != nil {
		return "", amerrors.ExtractionError(fmt.Sprintf("page %d: OCR failed", page), err)
	}
	return strings.TrimSpace(text), nil
}

func textOrNone(text string, src Source) PageText {
	if text == "" {
		return PageText{Source: SourceNone}
	}
	return PageText{Text: text, Source: src}
}
