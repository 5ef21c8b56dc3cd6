package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette used for terminal output.
const (
	ColorAccent    = "39"  // Headings, file paths
	ColorGreen     = "42"  // Success
	ColorGray      = "245" // Labels, secondary text
	ColorRed       = "196" // Errors
	ColorYellow    = "220" // Warnings
	ColorHighlight = "226" // Matched terms in snippets
)

// Styles holds the lipgloss styles used by Writer.
type Styles struct {
	Header    lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Label     lipgloss.Style
	Path      lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Path:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHighlight)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
		Path:      lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
	}
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
