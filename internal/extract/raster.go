package extract

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders pages with MuPDF through github.com/gen2brain/go-fitz.
// Each call opens its own document, so it is safe for concurrent use.
type FitzRasterizer struct{}

// NewFitzRasterizer creates a FitzRasterizer.
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

var _ Rasterizer = (*FitzRasterizer)(nil)

// Rasterize renders page (1-based) at dpi.
func (r *FitzRasterizer) Rasterize(ctx context.Context, path string, page int, dpi float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, doc.NumPage())
	}

	img, err := doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	return img, nil
}

// PageCount returns the number of pages in the PDF.
func (r *FitzRasterizer) PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}
