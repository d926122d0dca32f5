// Package metadata mirrors the build number into the pack's own metadata file.
//
// The file is optional. When present, its "current" object receives the build
// number and every other field is written back unchanged.
package metadata
