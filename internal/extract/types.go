// Package extract turns PDF pages into text. Native text-layer extraction is
// tried first; pages with too little text are rasterized and OCRed.
package extract

import (
	"context"
	"image"
)

// Source records where page text came from.
type Source string

const (
	SourceNative Source = "native"
	SourceOCR    Source = "ocr"
	SourceNone   Source = "none"
)

// Word is a position-annotated word from the text layer. Coordinates are in
// PDF points (72 per inch) with the origin at the top-left of the page.
type Word struct {
	Text   string
	X0     float64
	Top    float64
	X1     float64
	Bottom float64
}

// PageText is the extracted text of one page.
type PageText struct {
	Text   string
	Source Source
}

// Document is an open PDF.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int
	// PageText returns the trimmed native text of page n (1-based).
	PageText(n int) (string, error)
	// Words returns the words on page n (1-based) with their boxes.
	Words(n int) ([]Word, error)
	Close() error
}

// TextExtractor opens PDFs for text-layer access.
type TextExtractor interface {
	Open(path string) (Document, error)
}

// Rasterizer renders PDF pages to bitmaps.
type Rasterizer interface {
	// Rasterize renders page (1-based) at dpi. A nil image with a nil error
	// means the page produced nothing.
	Rasterize(ctx context.Context, path string, page int, dpi float64) (image.Image, error)
	// PageCount returns the number of pages in the PDF.
	PageCount(path string) (int, error)
}

// OCR recognizes text in an image.
type OCR interface {
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}
