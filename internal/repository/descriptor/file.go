package descriptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/jsonfile"
)

// Repository defines persistence operations for the descriptor.
type Repository interface {
	Load(ctx context.Context) (*pack.Descriptor, error)
	Save(ctx context.Context, d *pack.Descriptor) error
}

// FileRepository keeps the descriptor in a JSON file.
type FileRepository struct {
	// path is the filesystem location of the descriptor.
	path string
}

// ErrNotFound is returned when the descriptor file does not exist.
var ErrNotFound = errors.New("descriptor not found")

// NewFileRepository creates a repository for the descriptor at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the descriptor location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and decodes the descriptor.
func (r *FileRepository) Load(_ context.Context) (*pack.Descriptor, error) {
	var d pack.Descriptor

	err := jsonfile.Read(r.path, &d)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", r.path, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	return &d, nil
}

// Save atomically rewrites the descriptor.
func (r *FileRepository) Save(_ context.Context, d *pack.Descriptor) error {
	if _, err := jsonfile.Write(r.path, d); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}

	return nil
}
