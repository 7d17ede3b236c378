// Package fileutil provides content hashing and line statistics shared by
// the scan orchestrator and the metrics store.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// HashBytes returns the hex-encoded SHA-256 fingerprint of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile reads path and returns its content fingerprint.
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return HashBytes(content), nil
}
