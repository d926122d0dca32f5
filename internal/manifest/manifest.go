package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/pack-updater/internal/atomicfile"
	"github.com/oshokin/pack-updater/internal/checksum"
	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/jsonfile"
	"github.com/oshokin/pack-updater/internal/logger"
	"github.com/oshokin/pack-updater/internal/scanner"
)

var errUnsupportedFormat = errors.New("unsupported manifest format version")

// Build hashes every file and returns the manifest for remoteParent.
func Build(ctx context.Context, files []scanner.File, remoteParent string) (*pack.Manifest, error) {
	m := pack.NewManifest(remoteParent)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash, size, err := checksum.File(file.FullPath)
		if err != nil {
			return nil, err
		}

		m.Add(file.Path, pack.FileEntry{Hash: hash, Size: size})
		logger.DebugKV(ctx, "Hashed file", "path", file.Path, "sha1", hash, "size", size)
	}

	return m, nil
}

// Encode renders the manifest exactly as it is published.
func Encode(m *pack.Manifest) ([]byte, error) {
	return jsonfile.Encode(m)
}

// Publish atomically replaces the manifest at path and returns the hex SHA-1 of data.
func Publish(path string, data []byte) (string, error) {
	hash, err := atomicfile.Write(path, data)
	if err != nil {
		return "", fmt.Errorf("publish manifest: %w", err)
	}

	return hash, nil
}

// Load reads a published manifest.
func Load(path string) (*pack.Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m pack.Manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	if m.FormatVersion != pack.FormatVersion {
		return nil, fmt.Errorf("%s: version %d: %w", path, m.FormatVersion, errUnsupportedFormat)
	}

	return &m, nil
}
