package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oshokin/pack-updater/internal/config"
	"github.com/oshokin/pack-updater/internal/logger"
)

// Options controls which files are listed and how text files are treated.
type Options struct {
	// SkipNames are glob patterns matched against base names.
	SkipNames []string
	// Ignore are doublestar patterns matched against slash-separated relative paths.
	Ignore []string
	// Exclude are exact slash-separated relative paths that are never listed.
	Exclude []string
	// TextExtensions are lower-case extensions eligible for line ending normalization.
	TextExtensions []string
	// Normalize enables CRLF to LF rewriting of text files.
	Normalize bool
	// Undecodable decides what to do with a CRLF text file that is not valid UTF-8.
	Undecodable config.UndecodablePolicy
}

// File is a pack file selected by Scan.
type File struct {
	// Path is the slash-separated path relative to the pack root.
	Path string
	// FullPath is the location on disk.
	FullPath string
}

var errNotDirectory = errors.New("not a directory")

// OptionsFromConfig builds scan options from settings.
// Normalization is applied only when both normalize and the setting allow it.
func OptionsFromConfig(cfg *config.Config, normalize bool, exclude ...string) Options {
	return Options{
		SkipNames:      cfg.SkipNames,
		Ignore:         cfg.Ignore,
		Exclude:        exclude,
		TextExtensions: cfg.TextExtensions,
		Normalize:      normalize && cfg.NormalizeLineEndings,
		Undecodable:    cfg.UndecodableText,
	}
}

// Scan walks root and returns its regular files in path order.
// Text files are normalized before they are returned, so callers hash the final bytes.
func Scan(ctx context.Context, root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat pack root: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, errNotDirectory)
	}

	var files []File

	walkFn := func(fullPath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, fullPath)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		isRegular, err := isRegularFile(fullPath, entry)
		if err != nil {
			return err
		}

		if !isRegular || opts.skipped(rel) {
			logger.DebugKV(ctx, "Skipping file", "path", rel)
			return nil
		}

		if opts.Normalize && opts.isText(rel) {
			if err = normalize(ctx, fullPath, rel, opts.Undecodable); err != nil {
				return err
			}
		}

		files = append(files, File{Path: rel, FullPath: fullPath})

		return nil
	}

	if err = filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return files, nil
}

// skipped reports whether rel is excluded by name, ignore pattern or exact path.
func (o *Options) skipped(rel string) bool {
	if slices.Contains(o.Exclude, rel) {
		return true
	}

	name := path.Base(rel)
	for _, pattern := range o.SkipNames {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}

	for _, pattern := range o.Ignore {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}

	return false
}

func (o *Options) isText(rel string) bool {
	return slices.Contains(o.TextExtensions, strings.ToLower(path.Ext(rel)))
}

// isRegularFile follows symlinks; directories reached through a link are not walked.
func isRegularFile(fullPath string, entry fs.DirEntry) (bool, error) {
	if entry.Type().IsRegular() {
		return true, nil
	}

	if entry.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}

	info, err := os.Stat(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return info.Mode().IsRegular(), nil
}
