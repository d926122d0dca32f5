package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pack-updater/internal/checksum"
	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/service/common"
	"github.com/oshokin/pack-updater/internal/service/publisher"
)

// samplePack is a small resource pack with text, binary and junk files.
func samplePack() map[string]string {
	return map[string]string{
		"dynam/pack.mcmeta":                         "{\r\n  \"pack\": {\"pack_format\": 15}\r\n}\r\n",
		"dynam/assets/minecraft/lang/en_us.lang":    "item.stone=Stone\n",
		"dynam/assets/minecraft/textures/stone.png": "\x89PNG\r\n\x1a\n\x00\x00",
		"dynam/assets/minecraft/optifine/cit.jpm":   "{\r\n}",
		"dynam/assets/minecraft/textures/.DS_Store": "junk",
		"dynam/Thumbs.db":                           "junk",
		"dynam/c.json":                              "stale manifest",
		"dynamicmcpack.repo.json":                   `{"formatVersion": 1, "build": 5, "contents": [{"id": "pack", "hash": "old"}]}`,
		"dynamicmcpack.repo.build":                  "5",
		"dynam/assets/minecraft/sounds/ambient.ogg": "OggS\r\n",
		"dynam/assets/minecraft/texts/credits.txt":  "Thanks\r\nto\r\nall",
	}
}

// TestPublisher_FirstRun checks every output of a run against the files on disk.
func TestPublisher_FirstRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, samplePack())

	summary, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)
	require.Equal(t, pack.BuildNumber(5), summary.PreviousBuild)
	require.Equal(t, pack.BuildNumber(6), summary.Build)
	require.Equal(t, "dynam/c.json", summary.ManifestURL)
	require.False(t, summary.MetadataUpdated)

	// Manifest lists exactly the pack files minus junk and itself.
	m := readManifest(t, root)
	require.Equal(t, pack.FormatVersion, m.FormatVersion)
	require.Empty(t, m.Content.Parent)
	require.Equal(t, "dynam", m.Content.RemoteParent)

	paths := make([]string, 0, len(m.Content.Files))
	for p := range m.Content.Files {
		paths = append(paths, p)
	}

	sort.Strings(paths)
	require.Equal(t, []string{
		"assets/minecraft/lang/en_us.lang",
		"assets/minecraft/optifine/cit.jpm",
		"assets/minecraft/sounds/ambient.ogg",
		"assets/minecraft/texts/credits.txt",
		"assets/minecraft/textures/stone.png",
		"pack.mcmeta",
	}, paths)
	require.Equal(t, len(paths), summary.Files)
	requireManifestMatchesDisk(t, root, m)

	// Text files lost their CRLF, binary files kept theirs.
	require.Equal(t, "{\n  \"pack\": {\"pack_format\": 15}\n}\n", string(readFile(t, root, "dynam/pack.mcmeta")))
	require.Equal(t, "{\n}", string(readFile(t, root, "dynam/assets/minecraft/optifine/cit.jpm")))
	require.Equal(t, "Thanks\nto\nall", string(readFile(t, root, "dynam/assets/minecraft/texts/credits.txt")))
	require.Equal(t, "OggS\r\n", string(readFile(t, root, "dynam/assets/minecraft/sounds/ambient.ogg")))
	require.Equal(t, "\x89PNG\r\n\x1a\n\x00\x00", string(readFile(t, root, "dynam/assets/minecraft/textures/stone.png")))

	// Descriptor and counter point at the new manifest.
	manifestHash := checksum.Sum(readFile(t, root, "dynam/c.json"))
	require.Equal(t, manifestHash, summary.ManifestHash)

	d := readDescriptor(t, root)
	require.InDelta(t, 6, d["build"], 0)
	require.InDelta(t, 1, d["formatVersion"], 0)

	contents, ok := d["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	require.Equal(t, map[string]any{"id": "pack", "hash": manifestHash, "url": "dynam/c.json"}, contents[0])
	require.Equal(t, "6", string(readFile(t, root, "dynamicmcpack.repo.build")))

	// The run marker is gone.
	_, err = os.Stat(filepath.Join(root, publisher.MarkerFilename))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPublisher_RerunKeepsFileMap runs twice without changes.
func TestPublisher_RerunKeepsFileMap(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, samplePack())

	first, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)

	firstFiles := readManifest(t, root).Content.Files

	second, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)

	require.Equal(t, firstFiles, readManifest(t, root).Content.Files)
	require.Equal(t, first.ManifestHash, second.ManifestHash)
	require.Equal(t, first.Build, second.PreviousBuild)
	require.Equal(t, first.Build+1, second.Build)
	require.Equal(t, "7", string(readFile(t, root, "dynamicmcpack.repo.build")))
}

// TestPublisher_Metadata mirrors the build into the pack and lists its final bytes.
func TestPublisher_Metadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := samplePack()
	files["dynam/dynamicmcpack.json"] = `{"formatVersion": 1, "current": {"build": 5, "release_url": "https://example.com"}}`
	writeTree(t, root, files)

	summary, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)
	require.True(t, summary.MetadataUpdated)

	require.JSONEq(t, `{"formatVersion": 1, "current": {"build": 6, "release_url": "https://example.com"}}`,
		string(readFile(t, root, "dynam/dynamicmcpack.json")))

	m := readManifest(t, root)
	require.Contains(t, m.Content.Files, "dynamicmcpack.json")
	requireManifestMatchesDisk(t, root, m)
}

// TestPublisher_CounterFallback uses the counter file when the descriptor has no build.
func TestPublisher_CounterFallback(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		descriptor string
		counter    string
		want       pack.BuildNumber
	}{
		"missing build":     {`{"contents": [{"hash": ""}]}`, "41", 42},
		"zero build":        {`{"build": 0, "contents": [{"hash": ""}]}`, "41\n", 42},
		"garbage counter":   {`{"contents": [{"hash": ""}]}`, "n/a", 1},
		"descriptor string": {`{"build": "9", "contents": [{"hash": ""}]}`, "41", 10},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeTree(t, root, map[string]string{
				"dynam/pack.mcmeta":        "{}",
				"dynamicmcpack.repo.json":  tc.descriptor,
				"dynamicmcpack.repo.build": tc.counter,
			})

			summary, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
			require.NoError(t, err)
			require.Equal(t, tc.want, summary.Build)
			require.Equal(t, strconv.FormatInt(int64(tc.want), 10), string(readFile(t, root, "dynamicmcpack.repo.build")))
			require.InDelta(t, float64(tc.want), readDescriptor(t, root)["build"], 0)
		})
	}
}

// TestPublisher_NoCounterFile starts from the descriptor alone and creates the counter.
func TestPublisher_NoCounterFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dynam/pack.mcmeta":       "{}",
		"dynamicmcpack.repo.json": `{"contents": [{"hash": ""}]}`,
	})

	summary, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)
	require.Equal(t, pack.BuildNumber(1), summary.Build)
	require.Equal(t, "1", string(readFile(t, root, "dynamicmcpack.repo.build")))
}

// TestPublisher_EmptyContents aborts after the manifest is written and leaves the build number alone everywhere.
func TestPublisher_EmptyContents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := samplePack()
	files["dynamicmcpack.repo.json"] = `{"build": 5, "contents": []}`
	files["dynam/dynamicmcpack.json"] = `{"current": {"build": 5}}`
	writeTree(t, root, files)

	_, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.ErrorIs(t, err, pack.ErrNoContentEntries)

	require.Equal(t, "5", string(readFile(t, root, "dynamicmcpack.repo.build")))
	require.Equal(t, `{"current": {"build": 5}}`, string(readFile(t, root, "dynam/dynamicmcpack.json")))
	require.JSONEq(t, `{"build": 5, "contents": []}`, string(readFile(t, root, "dynamicmcpack.repo.json")))

	// Partial failure: the new manifest stays.
	requireManifestMatchesDisk(t, root, readManifest(t, root))

	_, err = os.Stat(filepath.Join(root, publisher.MarkerFilename))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPublisher_MissingPack fails before producing any output.
func TestPublisher_MissingPack(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dynamicmcpack.repo.json": `{"build": 5, "contents": [{"hash": "old"}]}`,
	})

	_, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.ErrorIs(t, err, common.ErrPackNotFound)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestPublisher_MissingDescriptor fails before touching the pack.
func TestPublisher_MissingDescriptor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"dynam/a.txt": "a\r\n"})

	_, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.Error(t, err)

	require.Equal(t, "a\r\n", string(readFile(t, root, "dynam/a.txt")))

	_, err = os.Stat(filepath.Join(root, "dynam", "c.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPublisher_AlreadyRunning refuses to run while a live process holds the marker.
func TestPublisher_AlreadyRunning(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, samplePack())
	writeTree(t, root, map[string]string{publisher.MarkerFilename: strconv.Itoa(os.Getpid())})

	_, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.ErrorIs(t, err, publisher.ErrAlreadyRunning)
	require.Equal(t, "5", string(readFile(t, root, "dynamicmcpack.repo.build")))
}

// TestPublisher_CustomSettings uses a settings file with another layout and ignore patterns.
func TestPublisher_CustomSettings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pack-updater.yaml": "pack_dir: packs/main\n" +
			"manifest_path: public/main.json\n" +
			"descriptor_file: public/repo.json\n" +
			"counter_file: public/repo.build\n" +
			"ignore: ['**/*.psd']\n" +
			"normalize_line_endings: false\n",
		"packs/main/a.txt":          "a\r\n",
		"packs/main/art/source.psd": "layers",
		"public/repo.json":          `{"build": 1, "contents": [{"hash": ""}, {"hash": "other", "url": "x.json"}]}`,
	})

	summary, err := publisher.Run(quietContext(), &publisher.Options{Root: root})
	require.NoError(t, err)
	require.Equal(t, "public/main.json", summary.ManifestURL)

	var m pack.Manifest
	require.NoError(t, json.Unmarshal(readFile(t, root, "public/main.json"), &m))
	require.Equal(t, "main", m.Content.RemoteParent)
	require.Equal(t, map[string]pack.FileEntry{
		"a.txt": {Hash: checksum.Sum([]byte("a\r\n")), Size: 3},
	}, m.Content.Files)

	var d map[string]any
	require.NoError(t, json.Unmarshal(readFile(t, root, "public/repo.json"), &d))
	require.Equal(t, []any{
		map[string]any{"hash": summary.ManifestHash, "url": "public/main.json"},
		map[string]any{"hash": "other", "url": "x.json"},
	}, d["contents"])
	require.Equal(t, "2", string(readFile(t, root, "public/repo.build")))
}
