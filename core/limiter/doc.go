// Package limiter provides a resizable concurrency limiter for upstream calls.
//
// A Limiter wraps golang.org/x/sync/semaphore.Weighted. Resizing replaces the
// semaphore instead of mutating it: tokens remember the semaphore they came
// from and release back to it.
//
// A Manager decides which limiter a refresh uses:
//
//   - Shared: one process-wide limiter. Get compares the configured capacity
//     with a cached last-seen value and only takes the lock when it changed.
//   - Isolated: a new limiter per refresh, sized from the current capacity.
package limiter
