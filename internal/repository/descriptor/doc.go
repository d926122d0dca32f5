// Package descriptor persists the repository descriptor, the JSON document that
// tells pack consumers the current build and where the manifest lives.
package descriptor
