package watcher

import (
	"time"
)

// Operation is the kind of change observed for a path.
type Operation int

const (
	// OpCreate indicates a new PDF appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing PDF was written.
	OpModify
	// OpDelete indicates a PDF, or a directory that may have held PDFs, is gone.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change.
type FileEvent struct {
	// Path is relative to the watched root, with forward slashes.
	Path string

	Operation Operation

	// IsDir is set for removed directories.
	IsDir bool

	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 2s
	DebounceWindow time.Duration

	// PollInterval is the rescan interval in polling mode.
	// Default: 5s
	PollInterval time.Duration

	// BatchBufferSize is the capacity of the batch channel.
	// Default: 16
	BatchBufferSize int

	// Exclude are doublestar globs matched against relative paths.
	Exclude []string

	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  2 * time.Second,
		PollInterval:    5 * time.Second,
		BatchBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.BatchBufferSize <= 0 {
		o.BatchBufferSize = defaults.BatchBufferSize
	}
	return o
}
