// Package holdrate computes how many active players own each character.
//
// An account is active when its credential is valid and it refreshed within
// the configured trailing window. Each run recomputes everything from the
// snapshot table and upserts one row per character; rows are never deleted.
// A run over an empty population writes nothing.
package holdrate
