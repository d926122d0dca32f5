package pack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	keyBuild    = "build"
	keyContents = "contents"
	keyHash     = "hash"
	keyURL      = "url"
)

// ErrNoContentEntries is returned when a descriptor has no content entry to update.
var ErrNoContentEntries = errors.New("descriptor has no contents entries, nowhere to write the manifest hash")

// ContentEntry points at one published manifest.
// Fields other than hash and url are kept as they were read.
type ContentEntry struct {
	Hash string
	URL  string

	extra map[string]json.RawMessage
}

// Descriptor is the repository-level document read by pack consumers.
// Fields other than build and contents are kept as they were read.
type Descriptor struct {
	Build    BuildNumber
	Contents []ContentEntry

	extra map[string]json.RawMessage
}

// SetManifest stores the new build and points the first content entry at the manifest.
// Other entries are not modified.
func (d *Descriptor) SetManifest(build BuildNumber, hash, url string) error {
	if len(d.Contents) == 0 {
		return ErrNoContentEntries
	}

	d.Build = build
	d.Contents[0].Hash = hash
	d.Contents[0].URL = url

	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*d = Descriptor{extra: fields}

	if raw, ok := fields[keyBuild]; ok {
		if err := json.Unmarshal(raw, &d.Build); err != nil {
			return fmt.Errorf("%s: %w", keyBuild, err)
		}

		delete(fields, keyBuild)
	}

	if raw, ok := fields[keyContents]; ok {
		if err := json.Unmarshal(raw, &d.Contents); err != nil {
			return fmt.Errorf("%s: %w", keyContents, err)
		}

		delete(fields, keyContents)
	}

	return nil
}

// MarshalJSON implements json.Marshaler. Keys come out sorted.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(d.extra)+2)
	for key, value := range d.extra {
		fields[key] = value
	}

	contents := d.Contents
	if contents == nil {
		contents = []ContentEntry{}
	}

	fields[keyBuild] = d.Build
	fields[keyContents] = contents

	return marshalUnescaped(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ContentEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = ContentEntry{extra: fields}

	for key, target := range map[string]*string{keyHash: &e.Hash, keyURL: &e.URL} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		delete(fields, key)
	}

	return nil
}

// MarshalJSON implements json.Marshaler. Keys come out sorted.
func (e ContentEntry) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(e.extra)+2)
	for key, value := range e.extra {
		fields[key] = value
	}

	fields[keyHash] = e.Hash
	fields[keyURL] = e.URL

	return marshalUnescaped(fields)
}

// marshalUnescaped is json.Marshal without HTML escaping, so URLs keep their '&'.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
