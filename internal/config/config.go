package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// UndecodablePolicy decides what happens to a text file that is not valid UTF-8.
type UndecodablePolicy string

const (
	// UndecodableSkip leaves the file untouched and hashes it as binary.
	UndecodableSkip UndecodablePolicy = "skip"
	// UndecodableFail aborts the run.
	UndecodableFail UndecodablePolicy = "fail"
)

// Config holds the repository layout and scan rules.
type Config struct {
	// PackDir is the pack directory relative to the repository root.
	// Its base name becomes the manifest's remote parent.
	PackDir string `yaml:"pack_dir"`
	// ManifestPath is where the manifest is written, relative to the repository root.
	// It is also the URL stored in the descriptor.
	ManifestPath string `yaml:"manifest_path"`
	// DescriptorFile is the repository descriptor JSON, relative to the repository root.
	DescriptorFile string `yaml:"descriptor_file"`
	// CounterFile is the standalone build counter, relative to the repository root.
	CounterFile string `yaml:"counter_file"`
	// MetadataFile is the in-pack metadata JSON, relative to PackDir.
	MetadataFile string `yaml:"metadata_file"`
	// SkipNames are glob patterns matched against file base names.
	SkipNames []string `yaml:"skip_names"`
	// Ignore are doublestar patterns matched against slash-separated paths relative to PackDir.
	Ignore []string `yaml:"ignore,omitempty"`
	// TextExtensions lists lower-case extensions whose line endings are normalized.
	TextExtensions []string `yaml:"text_extensions"`
	// NormalizeLineEndings enables CRLF to LF rewriting of text files.
	NormalizeLineEndings bool `yaml:"normalize_line_endings"`
	// UndecodableText is the policy for text files that are not valid UTF-8.
	UndecodableText UndecodablePolicy `yaml:"undecodable_text"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the repository root.
	DefaultConfigFilename = "pack-updater.yaml"

	// DefaultPackDir is the pack directory used when none is configured.
	DefaultPackDir = "dynam"

	// DefaultManifestPath is the manifest location used when none is configured.
	DefaultManifestPath = "dynam/c.json"

	// DefaultDescriptorFile is the repository descriptor used when none is configured.
	DefaultDescriptorFile = "dynamicmcpack.repo.json"

	// DefaultCounterFile is the build counter file used when none is configured.
	DefaultCounterFile = "dynamicmcpack.repo.build"

	// DefaultMetadataFile is the in-pack metadata file used when none is configured.
	DefaultMetadataFile = "dynamicmcpack.json"

	// DefaultFilePermissions is used for every file the tool writes.
	DefaultFilePermissions os.FileMode = 0o644
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptySetting is returned when a required path setting is blank.
	errEmptySetting = errors.New("setting must not be empty")
	// errPathOutsideRoot is returned for absolute paths or paths escaping their base.
	errPathOutsideRoot = errors.New("path must be relative and stay inside its base directory")
	// errBadPattern is returned for malformed glob patterns.
	errBadPattern = errors.New("invalid glob pattern")
	// errBadPolicy is returned for an unknown undecodable_text value.
	errBadPolicy = errors.New("unknown undecodable text policy")
)

// DefaultSkipNames returns the OS housekeeping files excluded from every pack.
func DefaultSkipNames() []string {
	return []string{"Thumbs.db", "desktop.ini", ".DS_Store"}
}

// DefaultTextExtensions returns the extensions treated as text by default.
func DefaultTextExtensions() []string {
	return []string{".json", ".mcmeta", ".properties", ".txt", ".lang", ".mcfunction", ".jem", ".jpm"}
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		PackDir:              DefaultPackDir,
		ManifestPath:         DefaultManifestPath,
		DescriptorFile:       DefaultDescriptorFile,
		CounterFile:          DefaultCounterFile,
		MetadataFile:         DefaultMetadataFile,
		SkipNames:            DefaultSkipNames(),
		TextExtensions:       DefaultTextExtensions(),
		NormalizeLineEndings: true,
		UndecodableText:      UndecodableSkip,
	}
}

// Load reads settings from path. A missing file yields Default().
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and normalizes extensions to lower case with a leading dot.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	required := []struct {
		name  string
		value string
	}{
		{"pack_dir", cfg.PackDir},
		{"manifest_path", cfg.ManifestPath},
		{"descriptor_file", cfg.DescriptorFile},
		{"counter_file", cfg.CounterFile},
		{"metadata_file", cfg.MetadataFile},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s: %w", field.name, errEmptySetting)
		}

		if !isLocal(field.value) {
			return fmt.Errorf("%s %q: %w", field.name, field.value, errPathOutsideRoot)
		}
	}

	for _, pattern := range append(slices.Clone(cfg.SkipNames), cfg.Ignore...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%q: %w", pattern, errBadPattern)
		}
	}

	for i, ext := range cfg.TextExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		cfg.TextExtensions[i] = ext
	}

	switch cfg.UndecodableText {
	case "":
		cfg.UndecodableText = UndecodableSkip
	case UndecodableSkip, UndecodableFail:
	default:
		return fmt.Errorf("%q: %w", cfg.UndecodableText, errBadPolicy)
	}

	return nil
}

// URL returns the manifest path as stored in the descriptor: forward slashes only.
func (c *Config) URL() string {
	return strings.ReplaceAll(c.ManifestPath, `\`, "/")
}

// isLocal reports whether p is relative and does not climb above its base.
// Both slash styles are accepted since settings are shared between platforms.
func isLocal(p string) bool {
	p = strings.ReplaceAll(p, `\`, "/")
	if path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return false
	}

	cleaned := path.Clean(p)

	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
