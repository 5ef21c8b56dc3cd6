package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

// defaultPageHeight is US Letter, used when a page has no MediaBox.
const defaultPageHeight = 792.0

// PDFExtractor reads PDF text layers with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	newReader func(io.ReaderAt, int64) (*pdf.Reader, error)
}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{newReader: pdf.NewReader}
}

var _ TextExtractor = (*PDFExtractor)(nil)

// Open opens the PDF at path. The file is closed again on any failure.
func (e *PDFExtractor) Open(path string) (doc Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, amerrors.CorruptFileError("cannot open PDF", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, amerrors.CorruptFileError("cannot open PDF", err)
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			_ = f.Close()
			doc = nil
			err = amerrors.CorruptFileError(fmt.Sprintf("cannot parse PDF: %v", r), nil)
		}
	}()

	newReader := e.newReader
	if newReader == nil {
		newReader = pdf.NewReader
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, amerrors.CorruptFileError("cannot open PDF", err)
	}
	return &pdfDocument{file: f, reader: r}, nil
}

type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) page(n int) (pdf.Page, error) {
	if n < 1 || n > d.reader.NumPage() {
		return pdf.Page{}, fmt.Errorf("page %d out of range 1..%d", n, d.reader.NumPage())
	}
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return pdf.Page{}, fmt.Errorf("page %d has no content", n)
	}
	return p, nil
}

func (d *pdfDocument) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text layer of page %d is malformed: %v", n, r)
		}
	}()

	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (d *pdfDocument) Words(n int) (words []Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text layer of page %d is malformed: %v", n, r)
		}
	}()

	p, err := d.page(n)
	if err != nil {
		return nil, err
	}

	content := p.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, Size: t.FontSize})
	}
	return GroupWords(glyphs, pageHeight(p)), nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

// pageHeight reads the MediaBox height, following inherited Parent entries.
func pageHeight(p pdf.Page) float64 {
	v := p.V
	for i := 0; i < 32 && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}
