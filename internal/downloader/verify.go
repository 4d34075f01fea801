package downloader

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// VerifyChecksum checks that the file at path hashes to the content hash
// it was downloaded for
func VerifyChecksum(path, expected string) error {
	if path == "" {
		return fmt.Errorf("file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	expected = strings.ToLower(strings.TrimSpace(expected))
	if checksum != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, checksum)
	}

	return nil
}
