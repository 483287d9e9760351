// Package integrity provides infrastructure health checks for roleboard.
//
// # Checks Provided
//
//   - Schema: Validates that every column of the snapshot models exists in the connected database.
//   - Storage: Checks the raw-data archive bucket and counts archived accounts (supports ?fix=true).
//   - Cache: Pings the redis ranking cache when it is enabled.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check.
//   - GET /integrity/cache : Runs the cache check.
package integrity
