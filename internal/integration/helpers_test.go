package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oshokin/pack-updater/internal/checksum"
	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/logger"
)

// quietContext returns a context whose logger discards everything.
func quietContext() context.Context {
	return logger.ToContext(context.Background(), zap.NewNop().Sugar())
}

// writeTree creates files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	}
}

// readFile returns the contents of a file relative to root.
func readFile(t *testing.T, root, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)

	return data
}

// readManifest decodes dynam/c.json.
func readManifest(t *testing.T, root string) *pack.Manifest {
	t.Helper()

	var m pack.Manifest
	require.NoError(t, json.Unmarshal(readFile(t, root, "dynam/c.json"), &m))

	return &m
}

// readDescriptor decodes the descriptor as a generic document.
func readDescriptor(t *testing.T, root string) map[string]any {
	t.Helper()

	var d map[string]any
	require.NoError(t, json.Unmarshal(readFile(t, root, "dynamicmcpack.repo.json"), &d))

	return d
}

// requireManifestMatchesDisk asserts every entry's size and SHA-1 equal the file on disk.
func requireManifestMatchesDisk(t *testing.T, root string, m *pack.Manifest) {
	t.Helper()

	for rel, entry := range m.Content.Files {
		data := readFile(t, filepath.Join(root, "dynam"), rel)
		require.Equal(t, checksum.Sum(data), entry.Hash, rel)
		require.EqualValues(t, len(data), entry.Size, rel)
	}
}
