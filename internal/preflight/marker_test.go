package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/pkg/version"
)

func TestNeedsCheck_NoMarker(t *testing.T) {
	assert.True(t, NeedsCheck(t.TempDir()))
}

func TestNeedsCheck_AfterMarkPassed(t *testing.T) {
	// Given: a data directory where the checks passed
	dataDir := t.TempDir()
	require.NoError(t, MarkPassed(dataDir))

	// Then: no check is needed
	assert.False(t, NeedsCheck(dataDir))
}

func TestNeedsCheck_OtherVersion(t *testing.T) {
	// Given: a marker written by another version
	dataDir := t.TempDir()
	content := time.Now().Format(time.RFC3339) + "\n0.0.0-older\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, MarkerFile), []byte(content), 0o644))

	// Then: the checks run again
	assert.True(t, NeedsCheck(dataDir))
}

func TestNeedsCheck_GarbageMarker(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, MarkerFile), []byte("yes"), 0o644))

	assert.True(t, NeedsCheck(dataDir))
	assert.Equal(t, time.Duration(0), MarkerAge(dataDir))
}

func TestMarkPassed_WritesTimeAndVersion(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", ".pdfsearch")

	require.NoError(t, MarkPassed(dataDir))

	content, err := os.ReadFile(filepath.Join(dataDir, MarkerFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	_, err = time.Parse(time.RFC3339, lines[0])
	assert.NoError(t, err)
	assert.Equal(t, version.Version, lines[1])
}

func TestClearMarker(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, MarkPassed(dataDir))

	require.NoError(t, ClearMarker(dataDir))

	assert.NoFileExists(t, filepath.Join(dataDir, MarkerFile))
	assert.NoError(t, ClearMarker(dataDir), "clearing twice is fine")
}

func TestMarkerAge(t *testing.T) {
	dataDir := t.TempDir()
	assert.Equal(t, time.Duration(0), MarkerAge(dataDir))

	require.NoError(t, MarkPassed(dataDir))

	assert.Less(t, MarkerAge(dataDir), 2*time.Second)
}
