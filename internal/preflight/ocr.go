package preflight

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// probeSize is the side of the blank image used to exercise tesseract.
const probeSize = 32

// CheckOCR runs the OCR engine on a blank image with the configured language.
// Indexing still works without OCR, but scanned pages yield no text, so a
// failure is reported without being critical.
func (c *Checker) CheckOCR(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "ocr",
		Required: false,
	}

	img := image.NewGray(image.Rect(0, 0, probeSize, probeSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if _, err := c.ocr.Recognize(ctx, img, c.ocrLanguage); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("language %q unavailable: %v", c.ocrLanguage, err)
		result.Details = "Install tesseract and its language data, or set index.ocr_enabled: false"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("tesseract ready (%s)", c.ocrLanguage)
	return result
}
