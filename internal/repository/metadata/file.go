package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/pack-updater/internal/domain/pack"
	"github.com/oshokin/pack-updater/internal/jsonfile"
)

const (
	keyCurrent = "current"
	keyBuild   = "build"
)

// FileRepository updates the in-pack metadata JSON file.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository for the metadata file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// SetBuild stores build as current.build. It reports false without error when the file does not exist.
// A missing or non-object "current" is replaced with a new object.
func (r *FileRepository) SetBuild(_ context.Context, build pack.BuildNumber) (bool, error) {
	var document map[string]json.RawMessage

	err := jsonfile.Read(r.path, &document)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("read pack metadata: %w", err)
	}

	// Anything that is not an object, null included, decodes into a nil map or fails.
	var current map[string]json.RawMessage
	if raw, ok := document[keyCurrent]; ok {
		if json.Unmarshal(raw, &current) != nil {
			current = nil
		}
	}

	if current == nil {
		current = make(map[string]json.RawMessage, 1)
	}

	current[keyBuild] = json.RawMessage(build.String())

	updated := make(map[string]any, len(document)+1)
	for key, value := range document {
		updated[key] = value
	}

	updated[keyCurrent] = current

	if _, err = jsonfile.Write(r.path, updated); err != nil {
		return false, fmt.Errorf("write pack metadata: %w", err)
	}

	return true, nil
}
