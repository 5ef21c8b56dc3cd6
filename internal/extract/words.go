package extract

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Glyph is a positioned run of text as laid out by the PDF content stream.
// X and Y are the baseline origin in PDF user space (bottom-left origin).
type Glyph struct {
	S    string
	X    float64
	Y    float64
	W    float64
	Size float64
}

// Fractions of the font size used to approximate the glyph box around the
// baseline.
const (
	ascentRatio  = 0.8
	descentRatio = 0.2
)

// GroupWords joins glyphs into words and converts their boxes to top-left
// origin coordinates for a page of the given height. Whitespace, a change of
// line or a horizontal gap wider than a fraction of the font size ends a word.
func GroupWords(glyphs []Glyph, pageHeight float64) []Word {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameLine(sorted[i], sorted[j]) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		words []Word
		cur   strings.Builder
		box   Word
		prev  *Glyph
	)

	flush := func() {
		if cur.Len() > 0 {
			box.Text = cur.String()
			words = append(words, box)
		}
		cur.Reset()
		box = Word{}
	}

	for i := range sorted {
		g := sorted[i]
		if prev != nil && (!sameLine(*prev, g) || g.X-(prev.X+prev.W) > 0.3*size(g)) {
			flush()
		}

		for _, r := range g.S {
			if unicode.IsSpace(r) {
				flush()
				continue
			}
			if cur.Len() == 0 {
				box = Word{
					X0:     g.X,
					Top:    pageHeight - (g.Y + ascentRatio*size(g)),
					X1:     g.X + g.W,
					Bottom: pageHeight - (g.Y - descentRatio*size(g)),
				}
			}
			cur.WriteRune(r)
		}
		if cur.Len() > 0 {
			box.X0 = math.Min(box.X0, g.X)
			box.X1 = math.Max(box.X1, g.X+g.W)
			box.Top = math.Min(box.Top, pageHeight-(g.Y+ascentRatio*size(g)))
			box.Bottom = math.Max(box.Bottom, pageHeight-(g.Y-descentRatio*size(g)))
		}
		prev = &sorted[i]
	}
	flush()

	return words
}

func sameLine(a, b Glyph) bool {
	return math.Abs(a.Y-b.Y) <= 0.5*math.Max(size(a), size(b))
}

func size(g Glyph) float64 {
	if g.Size <= 0 {
		return 1
	}
	return g.Size
}
