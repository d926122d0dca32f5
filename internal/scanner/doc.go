// Package scanner enumerates the files of a pack directory.
//
// Files are returned in path order. OS housekeeping files and ignored paths are
// left out, and text files with CRLF line endings are rewritten in place with LF
// endings so that their hashes do not depend on the editor that saved them.
package scanner
