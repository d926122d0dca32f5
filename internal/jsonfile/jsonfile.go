// Package jsonfile reads and writes the JSON documents of a pack repository.
//
// Reading is lenient: comments and trailing commas are stripped with jsonc, since
// descriptors are often edited by hand. Writing always produces 4-space indented
// JSON with sorted map keys and replaces the file atomically.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/oshokin/pack-updater/internal/atomicfile"
)

// indent matches the layout of documents produced by earlier tooling.
const indent = "    "

// decode strips JSONC comments and trailing commas from data and unmarshals it into v.
func decode(data []byte, v any) error {
	return json.Unmarshal(jsonc.ToJSON(data), v)
}

// Read loads the JSON document at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	if err = decode(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// Encode renders v as indented JSON without HTML escaping, ending with a newline.
// Non-ASCII text is written as is.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Write encodes v and atomically replaces path with it.
// It returns the hex SHA-1 of the written bytes.
func Write(path string, v any) (string, error) {
	data, err := Encode(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}

	return atomicfile.Write(path, data)
}
