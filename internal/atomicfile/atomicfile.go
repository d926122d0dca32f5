// Package atomicfile replaces files in one rename using go-update.
//
// The new bytes are written next to the target, checked against their SHA-1 and
// then renamed over it, so readers never observe a half-written document.
package atomicfile

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/pack-updater/internal/checksum"
	"github.com/oshokin/pack-updater/internal/config"
)

// Write replaces path with data and returns the hex SHA-1 of data.
// Parent directories are created when missing.
func Write(path string, data []byte) (string, error) {
	hash := checksum.Sum(data)

	if err := replace(path, data, hash); err != nil {
		return "", err
	}

	return hash, nil
}

// replace swaps data into path after checking it against expectedHash (hex SHA-1).
// go-update renames the current file aside, so an empty placeholder is created
// first when path does not exist yet. A symlinked path has its target replaced,
// and an existing file keeps its permission bits.
func replace(path string, data []byte, expectedHash string) error {
	sum, err := hex.DecodeString(expectedHash)
	if err != nil {
		return fmt.Errorf("decode checksum: %w", err)
	}

	path = filepath.Clean(path)

	if resolved, resolveErr := filepath.EvalSymlinks(path); resolveErr == nil {
		path = resolved
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	mode := config.DefaultFilePermissions

	info, err := os.Stat(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err = os.WriteFile(path, nil, mode); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	default:
		mode = info.Mode().Perm()
	}

	options := goupdate.Options{
		TargetPath: path,
		TargetMode: mode,
		Checksum:   sum,
		Hash:       checksum.Function,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
