package gateways

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wasmforge/internal/domain/interfaces"
)

// ChecksumExt is the suffix of the checksum file written next to each
// artifact.
const ChecksumExt = ".sha256"

// ChecksumRecorder computes SHA-256 digests of final artifacts and writes
// them as sibling files. Pure Go - no external sha256sum binary needed.
type ChecksumRecorder struct {
	logger interfaces.Logger
}

// NewChecksumRecorder creates a new checksum recorder
func NewChecksumRecorder(logger interfaces.Logger) *ChecksumRecorder {
	return &ChecksumRecorder{logger: logger}
}

// Calculate computes the lowercase hex SHA-256 digest of a file
func (c *ChecksumRecorder) Calculate(path string) (string, error) {
	//nolint:gosec // G304: path is an artifact this run produced
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Record hashes the artifact and writes `<path>.sha256` beside it,
// returning the digest. Computed after stripping so it covers the final
// released bytes.
func (c *ChecksumRecorder) Record(path string) (string, error) {
	sum, err := c.Calculate(path)
	if err != nil {
		return "", err
	}

	// The file holds the bare hex digest, nothing else; re-hashing the
	// artifact must reproduce the file content exactly.
	checksumPath := path + ChecksumExt
	if err := os.WriteFile(checksumPath, []byte(sum), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum file: %w", err)
	}

	c.logger.Info("checksum recorded",
		interfaces.F("artifact", filepath.Base(path)),
		interfaces.F("sha256", sum))

	return sum, nil
}

// Verify recomputes the artifact's digest and compares it to the recorded
// checksum file.
func (c *ChecksumRecorder) Verify(path string) error {
	//nolint:gosec // G304: path is user-provided for verification
	recorded, err := os.ReadFile(path + ChecksumExt)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	expected := strings.TrimSpace(string(recorded))
	actual, err := c.Calculate(path)
	if err != nil {
		return err
	}

	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			filepath.Base(path), expected, actual)
	}
	return nil
}
