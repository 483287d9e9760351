// Package utils provides conversion helpers for the loosely typed JSON blobs
// returned by the upstream game API, where numbers may arrive as float64,
// json.Number or strings depending on the endpoint.
package utils
