// Package checksum computes the SHA-1 content hashes used throughout the pack format.
package checksum

import (
	"crypto"
	"crypto/sha1" //nolint:gosec // SHA-1 is the hash the pack format mandates.
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Function is the content hash used by manifests and descriptors.
const Function crypto.Hash = crypto.SHA1

// Sum returns the lower-case hex SHA-1 of data.
func Sum(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // See Function.

	return hex.EncodeToString(sum[:])
}

// File returns the hex SHA-1 and the size of the file at path, reading it once.
func File(path string) (string, int64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", 0, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha1.New() //nolint:gosec // See Function.

	size, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
