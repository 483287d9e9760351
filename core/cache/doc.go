// Package cache provides a small JSON cache abstraction.
//
// The Redis implementation (go-redis v9) is used when cache.enabled is set;
// otherwise Nop is returned and every lookup misses. Keys are namespaced by
// the configured prefix, and DeletePrefix invalidates a whole family of keys
// (for example every cached page of one character's ranking).
package cache
