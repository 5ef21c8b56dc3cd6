package mcp

import (
	"time"

	"github.com/mklauzo/pdf-search/internal/async"
)

// TriggerIndexingInput is the input of the trigger_indexing tool.
type TriggerIndexingInput struct {
	FullReindex bool `json:"full_reindex,omitempty" jsonschema:"clear the index and re-extract every PDF"`
}

// EmptyInput is the input of tools without parameters.
type EmptyInput struct{}

// SearchInput is the input of the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"full-text query; supports SQLite FTS5 syntax such as phrases, prefix* and AND/OR/NOT"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 100"`
}

// SetScopeInput is the input of the set_scope tool.
type SetScopeInput struct {
	Path string `json:"path" jsonschema:"directory relative to the base directory; empty resets to the base"`
}

// FileInput names a PDF relative to the active scope.
type FileInput struct {
	File string `json:"file" jsonschema:"PDF path relative to the active scope"`
}

// PageImageInput is the input of the page_image tool.
type PageImageInput struct {
	File  string `json:"file" jsonschema:"PDF path relative to the active scope"`
	Page  int    `json:"page" jsonschema:"1-based page number"`
	Query string `json:"query,omitempty" jsonschema:"search query whose matching words are outlined in red"`
}

// IndexingStatusOutput is the output of the indexing_status tool.
type IndexingStatusOutput struct {
	IsRunning      bool     `json:"is_running"`
	TaskID         string   `json:"task_id,omitempty"`
	FullReindex    bool     `json:"full_reindex"`
	TotalFiles     int      `json:"total_files"`
	ProcessedFiles int      `json:"processed_files"`
	CurrentFile    string   `json:"current_file"`
	Errors         []string `json:"errors"`
	Indexed        int      `json:"indexed"`
	Skipped        int      `json:"skipped"`
	Failed         int      `json:"failed"`
	Removed        int      `json:"removed"`
	ProgressPct    float64  `json:"progress_pct"`
	StartedAt      string   `json:"started_at,omitempty"`
	FinishedAt     string   `json:"finished_at,omitempty"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	RunError       string   `json:"run_error,omitempty"`
}

// ListOutput wraps a list of paths.
type ListOutput struct {
	Items []string `json:"items"`
}

// MessageOutput carries a human-readable result of a control operation.
type MessageOutput struct {
	Started bool   `json:"started"`
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// PageImageOutput describes a rendered page. The PNG itself is returned as
// image content.
type PageImageOutput struct {
	File    string `json:"file"`
	Page    int    `json:"page"`
	Matches int    `json:"matches"`
	Warning string `json:"warning,omitempty"`
}

func toStatusOutput(s async.RunSnapshot) *IndexingStatusOutput {
	out := &IndexingStatusOutput{
		IsRunning:      s.Running,
		TaskID:         s.TaskID,
		FullReindex:    s.FullReindex,
		TotalFiles:     s.TotalFiles,
		ProcessedFiles: s.ProcessedFiles,
		CurrentFile:    s.CurrentFile,
		Errors:         s.Errors,
		Indexed:        s.Indexed,
		Skipped:        s.Skipped,
		Failed:         s.Failed,
		Removed:        s.Removed,
		ProgressPct:    s.ProgressPct,
		ElapsedSeconds: s.ElapsedSeconds,
		RunError:       s.RunError,
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if !s.StartedAt.IsZero() {
		out.StartedAt = s.StartedAt.Format(time.RFC3339)
	}
	if !s.FinishedAt.IsZero() {
		out.FinishedAt = s.FinishedAt.Format(time.RFC3339)
	}
	return out
}
