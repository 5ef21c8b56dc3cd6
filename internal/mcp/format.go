package mcp

import (
	"fmt"
	"strings"

	"github.com/mklauzo/pdf-search/internal/app"
)

// snippetMarks converts FTS5 highlight tags to markdown bold.
var snippetMarks = strings.NewReplacer("<mark>", "**", "</mark>", "**")

// FormatSearchResults formats search hits as markdown.
func FormatSearchResults(query string, resp *app.SearchResponse) string {
	if resp == nil {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}
	if resp.Error != "" {
		return fmt.Sprintf("%s: \"%s\"", resp.Error, query)
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d result", len(resp.Results))
	if len(resp.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, hit := range resp.Results {
		fmt.Fprintf(&sb, "### %d. %s (page %d)\n", i+1, hit.Path, hit.Page)
		fmt.Fprintf(&sb, "%s\n\n", snippetMarks.Replace(hit.Snippet))
	}
	return sb.String()
}

// FormatList formats paths as a markdown bullet list.
func FormatList(title string, items []string) string {
	if len(items) == 0 {
		return fmt.Sprintf("No %s.", strings.ToLower(title))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s (%d)\n\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s\n", it)
	}
	return sb.String()
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
