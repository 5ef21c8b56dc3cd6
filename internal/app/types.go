package app

import "github.com/mklauzo/pdf-search/internal/store"

// DirectoryMaxDepth is how deep ListDirectories descends below the base.
const DirectoryMaxDepth = 2

// ScopeFileName is the file in the data directory holding the active scope.
const ScopeFileName = "scope"

// Messages returned to callers of the control operations.
const (
	MsgIndexingStarted    = "Indexing started"
	MsgReindexingStarted  = "Reindexing started"
	MsgAlreadyRunning     = "Indexing already in progress"
	MsgScopeChanged       = "Directory changed, reindexing started"
	MsgScopeChangedBusy   = "Directory changed, but indexing already in progress"
	MsgInvalidSearchQuery = "Invalid search query"
)

// TriggerResult reports whether a requested run was started.
type TriggerResult struct {
	Started bool   `json:"started"`
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// SearchResponse carries ranked hits. Error is set instead of failing when
// the query syntax is invalid.
type SearchResponse struct {
	Results []store.SearchHit `json:"results"`
	Error   string            `json:"error,omitempty"`
}

// ScopeInfo describes the active scope.
type ScopeInfo struct {
	// Path is relative to the base directory; "" is the base itself.
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
}

// PageCount is the page count of one file.
type PageCount struct {
	File      string `json:"file"`
	PageCount int    `json:"page_count"`
}

// PageImage is a rendered page.
type PageImage struct {
	File    string `json:"file"`
	Page    int    `json:"page"`
	Data    []byte `json:"-"`
	Matches int    `json:"matches"`
	Warning string `json:"warning,omitempty"`
}
