// Package scanner discovers PDF files under a directory, respecting
// exclusion globs.
package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes a discovered PDF.
type FileInfo struct {
	Path    string    // Relative to the scan root, forward slashes
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the directory to scan.
	RootDir string

	// ExcludePatterns are doublestar globs matched against the relative path.
	ExcludePatterns []string

	// FollowSymlinks enables following symbolic links to files (default: false).
	FollowSymlinks bool
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// defaultExcludeDirs are directory names never descended into.
var defaultExcludeDirs = map[string]struct{}{
	".pdfsearch": {},
	".git":       {},
	".Trash":     {},
}

// SkipDir reports whether a directory with this name is never descended into.
func SkipDir(name string) bool {
	_, skip := defaultExcludeDirs[name]
	return skip
}

// IsPDF reports whether name has a .pdf extension, in any case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
