// Package counter persists the standalone build counter file.
//
// The file holds a bare decimal number. It backs up the descriptor's build field
// and is consulted only when that field is missing or zero.
package counter
