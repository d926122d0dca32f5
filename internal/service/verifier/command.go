package verifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/oshokin/pack-updater/internal/checksum"
	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/logger"
	"github.com/oshokin/pack-updater/internal/manifest"
	"github.com/oshokin/pack-updater/internal/repository/descriptor"
	"github.com/oshokin/pack-updater/internal/scanner"
	"github.com/oshokin/pack-updater/internal/service/common"
)

// ProblemKind classifies a verification finding.
type ProblemKind string

const (
	// ProblemDescriptorHash means the descriptor does not hold the manifest's SHA-1.
	ProblemDescriptorHash ProblemKind = "descriptor hash"
	// ProblemDescriptorURL means the descriptor points somewhere other than the manifest.
	ProblemDescriptorURL ProblemKind = "descriptor url"
	// ProblemMissing means a manifest entry has no file on disk.
	ProblemMissing ProblemKind = "missing"
	// ProblemSize means the file size differs from the manifest.
	ProblemSize ProblemKind = "size"
	// ProblemHash means the file content differs from the manifest.
	ProblemHash ProblemKind = "hash"
	// ProblemUnlisted means a pack file is absent from the manifest.
	ProblemUnlisted ProblemKind = "unlisted"
)

// Problem is one verification finding.
type Problem struct {
	Kind     ProblemKind
	Path     string
	Expected string
	Actual   string
}

// Report is the outcome of a verification.
type Report struct {
	// Build is the build recorded in the descriptor.
	Build pack.BuildNumber
	// ManifestHash is the hex SHA-1 of the manifest file on disk.
	ManifestHash string
	// Files is the number of manifest entries checked.
	Files int
	// Problems lists findings: descriptor first, then manifest entries, then unlisted files.
	Problems []Problem
}

// Options contains inputs for the verifier entry point.
type Options struct {
	// Root is the repository root. Empty means the working directory.
	Root string
	// ConfigPath is the settings file, relative to Root unless absolute.
	ConfigPath string
}

// ErrVerificationFailed is returned when the report holds at least one problem.
var ErrVerificationFailed = errors.New("pack verification failed")

// Run verifies the pack. The report is returned together with ErrVerificationFailed
// when problems are found.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	ctx = logger.WithName(ctx, "pack-verifier")

	ws, err := common.OpenWorkspace(opts.Root, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(ws.ManifestPath)
	if err != nil {
		return nil, err
	}

	desc, err := descriptor.NewFileRepository(ws.DescriptorPath).Load(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Build: desc.Build, Files: len(m.Content.Files)}

	if report.ManifestHash, _, err = checksum.File(ws.ManifestPath); err != nil {
		return nil, err
	}

	if err = report.checkDescriptor(ws, desc); err != nil {
		return nil, err
	}

	if err = report.checkEntries(ctx, ws, m); err != nil {
		return nil, err
	}

	if err = report.checkUnlisted(ctx, ws, m); err != nil {
		return nil, err
	}

	for _, problem := range report.Problems {
		logger.WarnKV(ctx, "Verification problem", "kind", problem.Kind, "path", problem.Path,
			"expected", problem.Expected, "actual", problem.Actual)
	}

	if len(report.Problems) > 0 {
		return report, fmt.Errorf("%d problem(s): %w", len(report.Problems), ErrVerificationFailed)
	}

	logger.InfoKV(ctx, "Pack verified", "build", report.Build, "files", report.Files, "sha1", report.ManifestHash)

	return report, nil
}

func (r *Report) checkDescriptor(ws *common.Workspace, desc *pack.Descriptor) error {
	if len(desc.Contents) == 0 {
		return fmt.Errorf("%s: %w", ws.DescriptorPath, pack.ErrNoContentEntries)
	}

	entry := desc.Contents[0]
	if entry.Hash != r.ManifestHash {
		r.add(ProblemDescriptorHash, ws.Config.DescriptorFile, r.ManifestHash, entry.Hash)
	}

	if entry.URL != ws.Config.URL() {
		r.add(ProblemDescriptorURL, ws.Config.DescriptorFile, ws.Config.URL(), entry.URL)
	}

	return nil
}

func (r *Report) checkEntries(ctx context.Context, ws *common.Workspace, m *pack.Manifest) error {
	paths := make([]string, 0, len(m.Content.Files))
	for p := range m.Content.Files {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		want := m.Content.Files[p]

		hash, size, err := checksum.File(filepath.Join(ws.PackDir, filepath.FromSlash(p)))
		if errors.Is(err, os.ErrNotExist) {
			r.add(ProblemMissing, p, want.Hash, "")
			continue
		}

		if err != nil {
			return err
		}

		if size != want.Size {
			r.add(ProblemSize, p, strconv.FormatInt(want.Size, 10), strconv.FormatInt(size, 10))
		}

		if hash != want.Hash {
			r.add(ProblemHash, p, want.Hash, hash)
		}
	}

	return nil
}

func (r *Report) checkUnlisted(ctx context.Context, ws *common.Workspace, m *pack.Manifest) error {
	files, err := scanner.Scan(ctx, ws.PackDir, scanner.OptionsFromConfig(ws.Config, false, ws.Exclusions()...))
	if err != nil {
		return err
	}

	for _, file := range files {
		if _, ok := m.Content.Files[file.Path]; !ok {
			r.add(ProblemUnlisted, file.Path, "", "")
		}
	}

	return nil
}

func (r *Report) add(kind ProblemKind, path, expected, actual string) {
	r.Problems = append(r.Problems, Problem{Kind: kind, Path: path, Expected: expected, Actual: actual})
}
