package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR recognizes text with tesseract through github.com/otiai10/gosseract/v2.
// A client is created per call; tesseract handles are not goroutine-safe.
type TesseractOCR struct{}

// NewTesseractOCR creates a TesseractOCR.
func NewTesseractOCR() *TesseractOCR {
	return &TesseractOCR{}
}

var _ OCR = (*TesseractOCR)(nil)

// Recognize returns the text in img. lang may join several languages with '+'.
func (o *TesseractOCR) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return "", fmt.Errorf("failed to set OCR language %q: %w", lang, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to load page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
