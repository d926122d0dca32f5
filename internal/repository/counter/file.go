package counter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oshokin/pack-updater/internal/atomicfile"
	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/logger"
)

// FileRepository keeps the build counter in a text file.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository for the counter file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load returns the stored build. A missing file or text that is not an integer reads as zero.
func (r *FileRepository) Load(ctx context.Context) (pack.BuildNumber, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("read build counter: %w", err)
	}

	build, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		logger.WarnKV(ctx, "Build counter is not an integer, treating it as zero", "path", r.path, "error", err)
		return 0, nil
	}

	return pack.BuildNumber(build), nil
}

// Save atomically writes build as decimal text without a trailing newline.
func (r *FileRepository) Save(_ context.Context, build pack.BuildNumber) error {
	if _, err := atomicfile.Write(r.path, []byte(build.String())); err != nil {
		return fmt.Errorf("write build counter: %w", err)
	}

	return nil
}
