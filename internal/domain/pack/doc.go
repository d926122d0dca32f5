// Package pack contains the domain types of a published resource pack.
//
// Manifest lists every pack file with its SHA-1 and size, Descriptor is the
// repository-level document that points consumers at the current manifest, and
// NextBuild decides the build number of a run from the two persisted counters.
package pack
