package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/logger"
	"github.com/oshokin/pack-updater/internal/manifest"
	"github.com/oshokin/pack-updater/internal/repository/counter"
	"github.com/oshokin/pack-updater/internal/repository/descriptor"
	"github.com/oshokin/pack-updater/internal/repository/metadata"
	"github.com/oshokin/pack-updater/internal/scanner"
	"github.com/oshokin/pack-updater/internal/service/common"
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// Root is the repository root. Empty means the working directory.
	Root string
	// ConfigPath is the settings file, relative to Root unless absolute.
	ConfigPath string
}

// Summary describes a completed run.
type Summary struct {
	// PreviousBuild is the build the run started from.
	PreviousBuild pack.BuildNumber
	// Build is the build the run published.
	Build pack.BuildNumber
	// ManifestURL is the manifest location as stored in the descriptor.
	ManifestURL string
	// ManifestHash is the hex SHA-1 of the published manifest.
	ManifestHash string
	// Files is the number of files listed in the manifest.
	Files int
	// MetadataUpdated reports whether the in-pack metadata file was rewritten.
	MetadataUpdated bool
}

// publisher holds the resolved layout and repositories of one run.
// It is unexported; callers use Run.
type publisher struct {
	ws          *common.Workspace
	descriptors descriptor.Repository
	counter     *counter.FileRepository
	metadata    *metadata.FileRepository
}

// Run executes the publishing workflow.
func Run(ctx context.Context, opts *Options) (*Summary, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pack-updater")

	ws, err := common.OpenWorkspace(opts.Root, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "root", ws.Root)

	release, err := acquireMarker(ctx, ws.Root)
	if err != nil {
		return nil, err
	}

	defer release()

	p := &publisher{
		ws:          ws,
		descriptors: descriptor.NewFileRepository(ws.DescriptorPath),
		counter:     counter.NewFileRepository(ws.CounterPath),
		metadata:    metadata.NewFileRepository(ws.MetadataPath),
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("publish pack: %w", err)
	}

	logger.Info(ctx, summary.String())

	return summary, nil
}

// Run performs the pipeline steps in order.
// The descriptor is read once up front; its contents are checked only after the
// manifest is published, so an unusable descriptor leaves the new manifest in place
// and nothing else.
func (p *publisher) Run(ctx context.Context) (*Summary, error) {
	desc, err := p.descriptors.Load(ctx)
	if err != nil {
		return nil, err
	}

	counterBuild, err := p.counter.Load(ctx)
	if err != nil {
		return nil, err
	}

	previous, next := pack.NextBuild(desc.Build, counterBuild)
	summary := &Summary{
		PreviousBuild: previous,
		Build:         next,
		ManifestURL:   p.ws.Config.URL(),
	}

	logger.InfoKV(ctx, "Resolved build number", "previous", previous, "next", next)

	// The metadata file is part of the pack, so it must hold its final bytes before hashing.
	// A descriptor without contents cannot take the new build, so the metadata keeps the old one.
	if len(desc.Contents) > 0 {
		if summary.MetadataUpdated, err = p.metadata.SetBuild(ctx, next); err != nil {
			return nil, err
		}
	}

	if summary.MetadataUpdated {
		logger.InfoKV(ctx, "Updated pack metadata", "path", p.ws.MetadataPath)
	}

	if summary.ManifestHash, summary.Files, err = p.publishManifest(ctx); err != nil {
		return nil, err
	}

	if len(desc.Contents) > 1 {
		logger.WarnKV(ctx, "Descriptor has several contents entries, only the first one is updated",
			"entries", len(desc.Contents))
	}

	if err = desc.SetManifest(next, summary.ManifestHash, summary.ManifestURL); err != nil {
		return nil, fmt.Errorf("%s: %w", p.ws.DescriptorPath, err)
	}

	if err = p.descriptors.Save(ctx, desc); err != nil {
		return nil, err
	}

	if err = p.counter.Save(ctx, next); err != nil {
		return nil, err
	}

	return summary, nil
}

// publishManifest scans the pack and writes the manifest, returning its hash and file count.
func (p *publisher) publishManifest(ctx context.Context) (string, int, error) {
	logger.InfoKV(ctx, "Scanning pack", "path", p.ws.PackDir)

	options := scanner.OptionsFromConfig(p.ws.Config, true, p.ws.Exclusions()...)

	files, err := scanner.Scan(ctx, p.ws.PackDir, options)
	if err != nil {
		return "", 0, err
	}

	m, err := manifest.Build(ctx, files, p.ws.RemoteParent())
	if err != nil {
		return "", 0, err
	}

	data, err := manifest.Encode(m)
	if err != nil {
		return "", 0, fmt.Errorf("encode manifest: %w", err)
	}

	hash, err := manifest.Publish(p.ws.ManifestPath, data)
	if err != nil {
		return "", 0, err
	}

	logger.InfoKV(ctx, "Published manifest", "path", p.ws.ManifestPath, "files", len(files), "sha1", hash)

	return hash, len(files), nil
}

// String renders the human-readable run summary.
func (s *Summary) String() string {
	var builder strings.Builder

	builder.WriteString("Pack published\n")
	fmt.Fprintf(&builder, "   build: %s -> %s\n", s.PreviousBuild, s.Build)
	fmt.Fprintf(&builder, "   content: %s\n", s.ManifestURL)
	fmt.Fprintf(&builder, "   content sha1: %s\n", s.ManifestHash)
	fmt.Fprintf(&builder, "   files: %d", s.Files)

	return builder.String()
}
