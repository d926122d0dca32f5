// Package manifest builds, encodes and publishes the pack content manifest.
//
// The manifest maps every pack file to its SHA-1 and size. Publish returns the
// SHA-1 of the exact bytes it wrote, which is what the repository descriptor records.
package manifest
