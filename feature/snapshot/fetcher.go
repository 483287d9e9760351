package snapshot

import (
	"context"
	"fmt"

	"roleboard/core/limiter"
	"roleboard/core/metrics"
	"roleboard/core/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpstreamClient fetches account rosters and character blobs.
type UpstreamClient interface {
	FetchRoleList(ctx context.Context, uid, credential string) (*upstream.RoleList, error)
	FetchCharacter(ctx context.Context, roleID, uid, credential string) (map[string]any, error)
}

// Fetcher issues one limiter-bounded upstream call per character.
type Fetcher struct {
	client   UpstreamClient
	limiters *limiter.Manager
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewFetcher creates a fetcher.
func NewFetcher(client UpstreamClient, limiters *limiter.Manager, logger *zap.Logger, m *metrics.Metrics) *Fetcher {
	return &Fetcher{client: client, limiters: limiters, logger: logger, metrics: m}
}

// Fetch returns the blobs of every character that was fetched successfully.
// Failed characters are logged and dropped; they never cancel siblings.
// The returned order follows roleIDs.
func (f *Fetcher) Fetch(ctx context.Context, uid, credential string, roleIDs []string) []Blob {
	lim := f.limiters.Get()
	results := make([]Blob, len(roleIDs))

	// A plain Group: a failure must not cancel the context of its siblings.
	var g errgroup.Group
	for i, roleID := range roleIDs {
		g.Go(func() error {
			blob, err := f.fetchOne(ctx, lim, uid, credential, roleID)
			if err != nil {
				f.metrics.FetchFailed()
				f.logger.Warn("Character fetch failed",
					zap.String("uid", uid),
					zap.String("role_id", roleID),
					zap.Error(err),
				)
				return nil
			}
			results[i] = blob
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Blob, 0, len(results))
	for _, b := range results {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, lim *limiter.Limiter, uid, credential, roleID string) (Blob, error) {
	tok, err := lim.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire limiter: %w", err)
	}
	f.metrics.LimiterAcquired()
	defer func() {
		tok.Release()
		f.metrics.LimiterReleased()
	}()

	raw, err := f.client.FetchCharacter(ctx, roleID, uid, credential)
	if err != nil {
		return nil, err
	}
	return Blob(raw), nil
}

// Selection names the characters a refresh targets. An empty RoleIDs means all.
type Selection struct {
	RoleIDs []string
}

// All reports whether every character is targeted.
func (s Selection) All() bool { return len(s.RoleIDs) == 0 }

func (s Selection) includes(id string) bool {
	if s.All() {
		return true
	}
	for _, r := range s.RoleIDs {
		if r == id {
			return true
		}
	}
	return false
}

// TargetIDs picks the role ids to fetch. The owner sees the full roster;
// anyone else sees the showcase list when it is not empty.
func TargetIDs(list *upstream.RoleList, owner bool, sel Selection) []string {
	var candidates []string
	if !owner && len(list.ShowRoleIDList) > 0 {
		for _, id := range list.ShowRoleIDList {
			candidates = append(candidates, fmt.Sprint(id))
		}
	} else {
		for _, r := range list.RoleList {
			candidates = append(candidates, fmt.Sprint(r.RoleID))
		}
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		_, dup := seen[id]
		seen[id] = struct{}{}
		if dup || !sel.includes(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
