package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/pack-updater/internal/logger"
)

const (
	// MarkerFilename marks that a run is in progress in the repository root.
	MarkerFilename = ".pack-updater.lock"

	// markerLifetime is how long a marker without a readable PID is honored.
	markerLifetime = 30 * time.Second
)

// ErrAlreadyRunning is returned when another run holds the marker.
var ErrAlreadyRunning = errors.New("another pack-updater run is in progress")

// acquireMarker creates the run marker and returns a function that removes it.
func acquireMarker(ctx context.Context, root string) (func(), error) {
	path := filepath.Join(root, MarkerFilename)

	if isRunningNow(ctx, path) {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}

	marker, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}

	if err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	_, err = marker.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := marker.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write run marker: %w", err)
	}

	return func() {
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove run marker", "path", path, "error", removeErr)
		}
	}, nil
}

// isRunningNow checks the marker at path and removes it when it looks stale.
// A marker is live while the process it names exists; markers without a PID
// fall back to their age.
func isRunningNow(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.WarnKV(ctx, "Unable to read run marker", "path", path, "error", err)
		return false
	}

	alive, known := markerProcessAlive(path)

	switch {
	case known && alive:
		return true
	case !known && time.Since(info.ModTime()) <= markerLifetime:
		return true
	}

	logger.InfoKV(ctx, "Removing stale run marker", "path", path)

	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true
	}

	return false
}

// markerProcessAlive reports whether the process recorded in the marker exists.
// The second result is false when the marker holds no usable PID.
func markerProcessAlive(path string) (bool, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, false
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, false
	}

	return process != nil, true
}
