package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/store"
)

func TestFormatSearchResults(t *testing.T) {
	resp := &app.SearchResponse{Results: []store.SearchHit{
		{Path: "reports/q1.pdf", Page: 3, Snippet: "alpha <mark>beta</mark> gamma"},
	}}

	out := FormatSearchResults("beta", resp)

	assert.Contains(t, out, `## Search Results for "beta"`)
	assert.Contains(t, out, "Found 1 result\n")
	assert.Contains(t, out, "### 1. reports/q1.pdf (page 3)")
	assert.Contains(t, out, "alpha **beta** gamma")
	assert.NotContains(t, out, "<mark>")
}

func TestFormatSearchResults_Plural(t *testing.T) {
	resp := &app.SearchResponse{Results: []store.SearchHit{{Path: "a.pdf", Page: 1}, {Path: "b.pdf", Page: 2}}}

	assert.Contains(t, FormatSearchResults("x", resp), "Found 2 results")
}

func TestFormatSearchResults_EmptyAndInvalid(t *testing.T) {
	assert.Equal(t, `No results found for "x"`, FormatSearchResults("x", &app.SearchResponse{}))
	assert.Equal(t, `No results found for "x"`, FormatSearchResults("x", nil))
	assert.Equal(t, `Invalid search query: "x("`,
		FormatSearchResults("x(", &app.SearchResponse{Error: app.MsgInvalidSearchQuery}))
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "## Files (2)\n\n- a.pdf\n- b/c.pdf\n", FormatList("Files", []string{"a.pdf", "b/c.pdf"}))
	assert.Equal(t, "No files.", FormatList("Files", nil))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 100},
		{-5, 100},
		{20, 20},
		{1000, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampLimit(tt.in, 100, 1, 500))
	}
}
