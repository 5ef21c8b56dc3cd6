// Package output formats CLI output, with colors when writing to a terminal.
package output

import (
	"fmt"
	"io"
	"strings"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a Writer. Color is enabled only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return NewWithColor(out, IsTTY(out) && !DetectNoColor())
}

// NewWithColor creates a Writer with color explicitly on or off.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	styles := NoColorStyles()
	if useColor {
		styles = DefaultStyles()
	}
	return &Writer{out: out, useColor: useColor, styles: styles}
}

// Interactive reports whether in-place progress updates make sense.
func (w *Writer) Interactive() bool {
	return w.useColor
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a section title.
func (w *Writer) Header(title string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(title))
}

// KeyValue prints an indented "label: value" line.
func (w *Writer) KeyValue(label string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %s %v\n", w.styles.Label.Render(label+":"), value)
}

// Item prints one indented list entry.
func (w *Writer) Item(text string) {
	_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Path.Render(text))
}

// Hit prints a search hit: the file and page, then the snippet with
// matched terms emphasized.
func (w *Writer) Hit(n int, file string, page int, snippet string) {
	_, _ = fmt.Fprintf(w.out, "%d. %s %s\n", n, w.styles.Path.Render(file), w.styles.Label.Render(fmt.Sprintf("(page %d)", page)))
	_, _ = fmt.Fprintf(w.out, "   %s\n", w.renderMarks(snippet))
}

// renderMarks replaces <mark>term</mark> with the highlight style, or with
// **term** when color is off.
func (w *Writer) renderMarks(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, markOpen)
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], markClose)
		if end < 0 {
			break
		}
		term := s[start+len(markOpen) : start+end]
		b.WriteString(s[:start])
		if w.useColor {
			b.WriteString(w.styles.Highlight.Render(term))
		} else {
			b.WriteString("**" + term + "**")
		}
		s = s[start+end+len(markClose):]
	}
	b.WriteString(s)
	return b.String()
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress prints a progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)

	// Carriage return for in-place updates
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// ProgressDone completes a progress line with newline.
func (w *Writer) ProgressDone() {
	_, _ = fmt.Fprintln(w.out)
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
