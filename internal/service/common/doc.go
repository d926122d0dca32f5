// Package common holds helpers shared by the publisher and verifier services.
//
// Workspace resolves the repository root and settings into absolute locations of
// the pack directory, manifest, descriptor, counter and metadata files.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
