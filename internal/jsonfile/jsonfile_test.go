package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pack-updater/internal/checksum"
)

// TestReadToleratesComments ensures hand-edited documents with comments still load.
func TestReadToleratesComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// bumped by the tool
		"build": 3, /* inline */
		"contents": [{"hash": "x",},],
	}`), 0o644))

	var doc map[string]any
	require.NoError(t, Read(path, &doc))
	require.InDelta(t, 3, doc["build"], 0)
	require.Len(t, doc["contents"], 1)
}

// TestReadErrors covers missing and malformed files.
func TestReadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var doc map[string]any
	require.ErrorIs(t, Read(filepath.Join(dir, "missing.json"), &doc), os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"build": `), 0o644))
	require.Error(t, Read(bad, &doc))
}

// TestWrite checks the layout of written documents and the returned hash.
func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meta.json")

	hash, err := Write(path, map[string]any{"name": "Пак <1>", "build": 2})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, checksum.Sum(data), hash)
	require.Equal(t, "{\n    \"build\": 2,\n    \"name\": \"Пак <1>\"\n}\n", string(data))
}
