// Package metrics exposes Prometheus collectors for the refresh pipeline,
// ranking queries, cache and hold-rate jobs.
//
// Collectors live on a private registry so tests can build independent
// instances. Handler serves that registry and is mounted at /metrics.
package metrics
