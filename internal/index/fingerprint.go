package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// fingerprintChunkSize is the read size used while hashing.
const fingerprintChunkSize = 8192

// Fingerprint returns the hex SHA-256 of the file's contents, streamed in
// fixed-size chunks.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open for fingerprint: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, fingerprintChunkSize)); err != nil {
		return "", fmt.Errorf("failed to read for fingerprint: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
