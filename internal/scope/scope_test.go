package scope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

func newTree(t *testing.T) *Manager {
	t.Helper()
	base := t.TempDir()
	for _, d := range []string{"reports/2024/q1", "reports/2023", "invoices", ".pdfsearch"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "reports", "r.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "top.pdf"), []byte("%PDF"), 0o644))

	m, err := NewManager(base)
	require.NoError(t, err)
	return m
}

func TestNewManager_StartsAtBase(t *testing.T) {
	m := newTree(t)

	assert.Equal(t, "", m.Get())
	assert.Equal(t, m.Base(), m.Root())
}

func TestNewManager_MissingBase(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, amerrors.ErrScope)
}

func TestSet_Subdirectory(t *testing.T) {
	// Given: a manager at the base
	m := newTree(t)

	// When: scoping to a nested directory
	require.NoError(t, m.Set("reports/2024"))

	// Then: the relative scope and root follow
	assert.Equal(t, "reports/2024", m.Get())
	assert.Equal(t, filepath.Join(m.Base(), "reports", "2024"), m.Root())
}

func TestSet_EmptyResetsToBase(t *testing.T) {
	m := newTree(t)
	require.NoError(t, m.Set("reports"))

	require.NoError(t, m.Set(""))

	assert.Equal(t, "", m.Get())
	assert.Equal(t, m.Base(), m.Root())
}

func TestSet_Rejects(t *testing.T) {
	m := newTree(t)
	require.NoError(t, m.Set("invoices"))

	tests := []struct {
		name string
		path string
	}{
		{"parent escape", "../"},
		{"nested escape", "reports/../../etc"},
		{"absolute outside", os.TempDir()},
		{"missing directory", "nope"},
		{"file not directory", "top.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Set(tt.path)

			require.Error(t, err)
			assert.ErrorIs(t, err, amerrors.ErrScope)
			assert.Equal(t, "invoices", m.Get(), "scope must not change on error")
		})
	}
}

func TestSet_SiblingWithSharedPrefixIsOutside(t *testing.T) {
	// Given: a base and a sibling whose name starts with the base name
	parent := t.TempDir()
	base := filepath.Join(parent, "docs")
	sibling := filepath.Join(parent, "docs-private")
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.MkdirAll(sibling, 0o755))
	m, err := NewManager(base)
	require.NoError(t, err)

	// When/Then: the sibling is rejected
	assert.ErrorIs(t, m.Set(sibling), amerrors.ErrScope)
}

func TestSet_AbsoluteInsideBase(t *testing.T) {
	m := newTree(t)

	require.NoError(t, m.Set(filepath.Join(m.Base(), "reports")))

	assert.Equal(t, "reports", m.Get())
}

func TestResolve(t *testing.T) {
	m := newTree(t)
	require.NoError(t, m.Set("reports"))

	abs, err := m.Resolve("r.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Base(), "reports", "r.pdf"), abs)

	_, err = m.Resolve("../top.pdf")
	assert.ErrorIs(t, err, amerrors.ErrBadPath)

	_, err = m.Resolve("missing.pdf")
	assert.ErrorIs(t, err, amerrors.ErrNotFound)

	_, err = m.Resolve("")
	assert.ErrorIs(t, err, amerrors.ErrBadPath)
}

func TestDirectories_DepthTwoSortedNoHidden(t *testing.T) {
	m := newTree(t)

	dirs, err := m.Directories(2)

	require.NoError(t, err)
	assert.Equal(t, []string{"invoices", "reports", "reports/2023", "reports/2024"}, dirs)
}

func TestSaveRestore(t *testing.T) {
	// Given: a scope set to a subdirectory and saved
	m := newTree(t)
	require.NoError(t, m.Set("reports/2024"))
	file := filepath.Join(t.TempDir(), "scope")
	require.NoError(t, m.Save(file))

	// When: a fresh manager over the same base restores it
	fresh, err := NewManager(m.Base())
	require.NoError(t, err)
	require.NoError(t, fresh.Restore(file))

	// Then: the scope matches
	assert.Equal(t, "reports/2024", fresh.Get())
}

func TestRestore_MissingFileKeepsBase(t *testing.T) {
	m := newTree(t)

	require.NoError(t, m.Restore(filepath.Join(t.TempDir(), "absent")))

	assert.Equal(t, "", m.Get())
}

func TestRestore_RemovedDirectoryIsScopeError(t *testing.T) {
	m := newTree(t)
	file := filepath.Join(t.TempDir(), "scope")
	require.NoError(t, os.WriteFile(file, []byte("gone\n"), 0o644))

	err := m.Restore(file)

	assert.ErrorIs(t, err, amerrors.ErrScope)
	assert.Equal(t, "", m.Get())
}
