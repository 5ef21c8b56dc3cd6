// Package scope holds the active root directory under which indexing and
// file listing operate. The active root is always the base directory or one
// of its descendants.
package scope

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

// Manager owns the active scope. It is safe for concurrent use.
type Manager struct {
	mu   sync.RWMutex
	base string
	rel  string
}

// NewManager creates a Manager rooted at baseDir with the scope set to the
// base itself. baseDir must be an existing directory.
func NewManager(baseDir string) (*Manager, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, amerrors.ScopeError("invalid base directory", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, amerrors.ScopeError(fmt.Sprintf("base directory does not exist: %s", abs), err)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return nil, amerrors.ScopeError(fmt.Sprintf("base directory is not a directory: %s", abs), err)
	}
	return &Manager{base: resolved}, nil
}

// Base returns the absolute base directory.
func (m *Manager) Base() string {
	return m.base
}

// Get returns the scope relative to the base, or "" for the base itself.
func (m *Manager) Get() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rel
}

// Root returns the absolute active root.
func (m *Manager) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rel == "" {
		return m.base
	}
	return filepath.Join(m.base, filepath.FromSlash(m.rel))
}

// Set changes the active scope. path is resolved against the base; an empty
// path resets to the base. The scope is left unchanged on error.
func (m *Manager) Set(path string) error {
	path = strings.TrimSpace(path)

	target := m.base
	if path != "" {
		if filepath.IsAbs(path) {
			target = filepath.Clean(path)
		} else {
			target = filepath.Join(m.base, path)
		}
	}

	rel, ok := within(m.base, target)
	if !ok {
		return amerrors.ScopeError(fmt.Sprintf("directory is outside the base directory: %s", path), nil)
	}

	// Symlinks may point outside the base even when the lexical path does not.
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return amerrors.ScopeError(fmt.Sprintf("directory does not exist: %s", path), err)
	}
	if _, ok := within(m.base, resolved); !ok {
		return amerrors.ScopeError(fmt.Sprintf("directory is outside the base directory: %s", path), nil)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return amerrors.ScopeError(fmt.Sprintf("directory does not exist: %s", path), err)
	}
	if !info.IsDir() {
		return amerrors.ScopeError(fmt.Sprintf("not a directory: %s", path), nil)
	}

	m.mu.Lock()
	m.rel = rel
	m.mu.Unlock()
	return nil
}

// Save records the active scope in file so a later process can Restore it.
func (m *Manager) Save(file string) error {
	if err := os.WriteFile(file, []byte(m.Get()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to save scope: %w", err)
	}
	return nil
}

// Restore applies a scope previously written by Save. A missing file leaves
// the scope at the base.
func (m *Manager) Restore(file string) error {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read saved scope: %w", err)
	}
	return m.Set(strings.TrimSpace(string(data)))
}

// Resolve maps a file path relative to the active scope to an absolute path.
// It rejects paths escaping the scope and files that do not exist.
func (m *Manager) Resolve(file string) (string, error) {
	root := m.Root()
	file = strings.TrimSpace(file)
	if file == "" {
		return "", amerrors.New(amerrors.ErrCodeInvalidPath, "file path is required", nil)
	}

	abs := filepath.Join(root, filepath.FromSlash(file))
	if filepath.IsAbs(file) {
		abs = filepath.Clean(file)
	}
	if rel, ok := within(root, abs); !ok || rel == "" {
		return "", amerrors.New(amerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid file path: %s", file), nil)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", amerrors.NotFoundError(fmt.Sprintf("file not found: %s", file), err)
	}
	return abs, nil
}

// Directories lists directories under the base up to maxDepth levels deep,
// as sorted forward-slash relative paths.
func (m *Manager) Directories(maxDepth int) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(m.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || path == m.base {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(m.base, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1
		if depth > maxDepth {
			return filepath.SkipDir
		}
		dirs = append(dirs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// within reports whether target is base or below it, returning the
// forward-slash relative path ("" for base itself).
func within(base, target string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
