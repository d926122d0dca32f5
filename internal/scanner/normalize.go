package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/oshokin/pack-updater/internal/config"
	"github.com/oshokin/pack-updater/internal/logger"
)

// ErrUndecodableText is returned under the fail policy for a CRLF text file that is not valid UTF-8.
var ErrUndecodableText = errors.New("text file is not valid UTF-8")

var (
	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// normalizeLineEndings returns data with every CRLF replaced by LF.
// The second result is false when data has no CRLF, and an error is returned
// when data has CRLF but is not valid UTF-8.
func normalizeLineEndings(data []byte) ([]byte, bool, error) {
	if !bytes.Contains(data, crlf) {
		return data, false, nil
	}

	if !utf8.Valid(data) {
		return data, false, ErrUndecodableText
	}

	return bytes.ReplaceAll(data, crlf, lf), true, nil
}

// normalize rewrites fullPath in place when its line endings change.
func normalize(ctx context.Context, fullPath, rel string, policy config.UndecodablePolicy) error {
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	normalized, changed, err := normalizeLineEndings(data)
	if errors.Is(err, ErrUndecodableText) {
		if policy == config.UndecodableFail {
			return fmt.Errorf("%s: %w", rel, err)
		}

		logger.DebugKV(ctx, "Leaving undecodable text file as is", "path", rel)

		return nil
	}

	if !changed {
		return nil
	}

	// Truncating an existing file keeps its mode; the permission only applies if it vanished meanwhile.
	if err = os.WriteFile(fullPath, normalized, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("rewrite %s: %w", rel, err)
	}

	logger.InfoKV(ctx, "Normalized line endings", "path", rel)

	return nil
}
