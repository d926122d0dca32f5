package pack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// errInvalidBuild is returned when a build field holds neither a number nor a numeric string.
var errInvalidBuild = errors.New("invalid build number")

// BuildNumber is a build counter as stored in JSON documents.
// It decodes from integers, floats (truncated), numeric strings and null.
type BuildNumber int64

// UnmarshalJSON implements json.Unmarshaler.
func (b *BuildNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = 0
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("%s: %w", data, errInvalidBuild)
		}
	}

	value, err := ParseBuild(text)
	if err != nil {
		return err
	}

	*b = value

	return nil
}

// ParseBuild converts decimal text to a BuildNumber.
// Surrounding whitespace is ignored and fractional values are truncated.
func ParseBuild(text string) (BuildNumber, error) {
	text = strings.TrimSpace(text)

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return BuildNumber(n), nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q: %w", text, errInvalidBuild)
	}

	return BuildNumber(f), nil
}

// String returns the decimal form written to the counter file.
func (b BuildNumber) String() string {
	return strconv.FormatInt(int64(b), 10)
}

// NextBuild picks the prior build of a run and the build that follows it.
// The descriptor value wins unless it is zero, in which case the counter file value is used.
func NextBuild(descriptorBuild, counterBuild BuildNumber) (BuildNumber, BuildNumber) {
	prior := descriptorBuild
	if prior == 0 {
		prior = counterBuild
	}

	return prior, prior + 1
}
