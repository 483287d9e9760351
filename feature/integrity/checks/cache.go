package checks

import "context"

// Pinger is implemented by caches that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheReport describes the ranking cache.
type CacheReport struct {
	Enabled   bool   `json:"enabled"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// CheckCache pings the cache. A nil pinger means the cache is disabled.
func CheckCache(ctx context.Context, p Pinger) CacheReport {
	if p == nil {
		return CacheReport{}
	}
	if err := p.Ping(ctx); err != nil {
		return CacheReport{Enabled: true, Error: err.Error()}
	}
	return CacheReport{Enabled: true, Reachable: true}
}
