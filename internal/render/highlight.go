package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mklauzo/pdf-search/internal/extract"
)

// HighlightColor is the outline color of matched words.
var HighlightColor = color.RGBA{R: 255, A: 255}

// minTermLength is the shortest query term, in runes, used for highlighting.
const minTermLength = 2

// Box is a rectangle in image pixels.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// MapWord converts a word box from PDF points to pixels at dpi and pads it
// by pad pixels on every side.
func MapWord(w extract.Word, dpi, pad float64) Box {
	scale := dpi / 72
	return Box{
		X0: w.X0*scale - pad,
		Y0: w.Top*scale - pad,
		X1: w.X1*scale + pad,
		Y1: w.Bottom*scale + pad,
	}
}

// QueryTerms lowercases and splits a query into highlight terms, dropping
// terms shorter than two runes.
func QueryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// MatchWords returns the words containing any term as a substring,
// case-insensitively.
func MatchWords(words []extract.Word, terms []string) []extract.Word {
	if len(terms) == 0 {
		return nil
	}
	var out []extract.Word
	for _, w := range words {
		text := strings.ToLower(w.Text)
		for _, t := range terms {
			if strings.Contains(text, t) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// toRGBA returns a drawable copy of img.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// DrawOutline strokes b onto dst with a line width px wide drawn inward.
// The right and bottom edges are inclusive. The box is clipped to dst.
func DrawOutline(dst draw.Image, b Box, width int, c color.Color) {
	if width < 1 {
		width = 1
	}
	r := image.Rect(
		int(math.Round(b.X0)), int(math.Round(b.Y0)),
		int(math.Round(b.X1))+1, int(math.Round(b.Y1))+1,
	)
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(r).Intersect(dst.Bounds())
		if !e.Empty() {
			draw.Draw(dst, e, src, image.Point{}, draw.Src)
		}
	}
}
