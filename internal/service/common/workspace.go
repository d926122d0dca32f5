//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oshokin/pack-updater/internal/config"
)

// ErrPackNotFound is returned when the pack directory does not exist.
var ErrPackNotFound = errors.New("pack directory not found")

// Workspace is a repository layout resolved against its root directory.
type Workspace struct {
	// Root is the absolute repository root.
	Root string
	// Config holds the validated settings.
	Config *config.Config
	// PackDir is the absolute pack directory.
	PackDir string
	// ManifestPath is the absolute manifest location.
	ManifestPath string
	// DescriptorPath is the absolute descriptor location.
	DescriptorPath string
	// CounterPath is the absolute build counter location.
	CounterPath string
	// MetadataPath is the absolute in-pack metadata location.
	MetadataPath string
}

// OpenWorkspace loads settings and checks that the pack directory exists.
// An empty root means the working directory; a relative configPath is resolved against root.
func OpenWorkspace(root, configPath string) (*Workspace, error) {
	if root == "" {
		root = "."
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	ws := &Workspace{
		Root:           root,
		Config:         cfg,
		PackDir:        resolve(root, cfg.PackDir),
		ManifestPath:   resolve(root, cfg.ManifestPath),
		DescriptorPath: resolve(root, cfg.DescriptorFile),
		CounterPath:    resolve(root, cfg.CounterFile),
	}
	ws.MetadataPath = resolve(ws.PackDir, cfg.MetadataFile)

	info, err := os.Stat(ws.PackDir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%s: %w", ws.PackDir, ErrPackNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("stat pack directory: %w", err)
	}

	return ws, nil
}

// RemoteParent returns the pack directory name recorded in the manifest.
func (w *Workspace) RemoteParent() string {
	return path.Base(path.Clean(strings.ReplaceAll(w.Config.PackDir, `\`, "/")))
}

// ManifestInPack returns the manifest path relative to the pack directory, slash-separated.
// The second result is false when the manifest lives outside the pack.
func (w *Workspace) ManifestInPack() (string, bool) {
	rel, err := filepath.Rel(w.PackDir, w.ManifestPath)
	if err != nil {
		return "", false
	}

	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	return rel, true
}

// Exclusions lists pack-relative paths that are never part of the manifest.
func (w *Workspace) Exclusions() []string {
	if rel, ok := w.ManifestInPack(); ok {
		return []string{rel}
	}

	return nil
}

// resolve joins a settings path, written with either separator, onto base.
func resolve(base, p string) string {
	return filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))
}
