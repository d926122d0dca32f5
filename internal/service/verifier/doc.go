// Package verifier checks a published pack without modifying it.
//
// It compares the descriptor with the manifest file and every manifest entry
// with the bytes on disk, and lists pack files the manifest does not know about.
package verifier
