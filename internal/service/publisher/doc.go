// Package publisher runs the pack publishing pipeline.
//
// A run mirrors the next build number into the pack metadata, normalizes and
// hashes the pack files, publishes the manifest and finally points the
// repository descriptor and build counter at the new manifest.
package publisher
