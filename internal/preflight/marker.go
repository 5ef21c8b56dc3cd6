package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mklauzo/pdf-search/pkg/version"
)

// MarkerFile records in the data directory that the checks passed.
const MarkerFile = ".preflight-passed"

// NeedsCheck reports whether the checks should run: there is no marker, or
// it was written by another pdfsearch version.
func NeedsCheck(dataDir string) bool {
	_, ver, ok := readMarker(dataDir)
	return !ok || ver != version.Version
}

// MarkPassed writes the marker with the current time and version.
func MarkPassed(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	content := time.Now().Format(time.RFC3339) + "\n" + version.Version + "\n"
	return os.WriteFile(filepath.Join(dataDir, MarkerFile), []byte(content), 0o644)
}

// ClearMarker removes the marker so the next serve checks again.
func ClearMarker(dataDir string) error {
	err := os.Remove(filepath.Join(dataDir, MarkerFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove marker file: %w", err)
	}
	return nil
}

// MarkerAge returns how long ago the checks passed, or zero without a marker.
func MarkerAge(dataDir string) time.Duration {
	at, _, ok := readMarker(dataDir)
	if !ok {
		return 0
	}
	return time.Since(at)
}

func readMarker(dataDir string) (time.Time, string, bool) {
	content, err := os.ReadFile(filepath.Join(dataDir, MarkerFile))
	if err != nil {
		return time.Time{}, "", false
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[0]))
	if err != nil {
		return time.Time{}, "", false
	}
	var ver string
	if len(lines) > 1 {
		ver = strings.TrimSpace(lines[1])
	}
	return at, ver, true
}
