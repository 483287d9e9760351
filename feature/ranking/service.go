package ranking

import (
	"context"
	"fmt"
	"time"

	"roleboard/core/cache"
	"roleboard/core/metrics"
	"roleboard/core/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// GroupResolver lists the uids bound in a chat group.
type GroupResolver interface {
	GroupUIDs(ctx context.Context, groupID string) ([]string, map[string]string, error)
}

// Service serves rankings with a shared page cache.
type Service struct {
	engine  *Engine
	cache   cache.Cache
	ttl     time.Duration
	groups  GroupResolver
	logger  *zap.Logger
	metrics *metrics.Metrics
	sf      singleflight.Group
}

// NewService creates a ranking service. groups may be nil.
func NewService(engine *Engine, c cache.Cache, ttl time.Duration, groups GroupResolver, logger *zap.Logger, m *metrics.Metrics) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{engine: engine, cache: c, ttl: ttl, groups: groups, logger: logger, metrics: m}
}

// Engine exposes the underlying query engine.
func (s *Service) Engine() *Engine { return s.engine }

const rankPrefix = "rank:"

func roleKey(roleID string) string { return rankPrefix + roleID + ":" }

const totalKey = "total:"

// cached loads key from the cache, filling it through a single flight on a miss.
func cached[T any](ctx context.Context, s *Service, query, key string, load func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery(query, time.Since(start)) }()

	var hit T
	ok, err := s.cache.GetJSON(ctx, key, &hit)
	if err != nil {
		s.logger.Warn("Ranking cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.CacheLookup(ok)
	if ok {
		return hit, nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetJSON(ctx, key, v, s.ttl); err != nil {
			s.logger.Warn("Ranking cache write failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// GlobalRank returns a cached page of roleID's ranking.
func (s *Service) GlobalRank(ctx context.Context, roleID string, t RankType, page, pageSize int) (*Page, error) {
	page, pageSize = s.engine.normalize(page, pageSize)
	key := fmt.Sprintf("%sglobal:%s:%d:%d", roleKey(roleID), t, page, pageSize)
	return cached(ctx, s, "global", key, func(ctx context.Context) (*Page, error) {
		return s.engine.GlobalRank(ctx, roleID, t, page, pageSize)
	})
}

// TopWithSelf returns a cached page with uid's live position attached.
func (s *Service) TopWithSelf(ctx context.Context, roleID string, t RankType, page, pageSize int, uid string) (*Board, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ranking.TopWithSelf")
	span.SetAttributes(attribute.String("role_id", roleID), attribute.Int("page", page))
	defer span.End()

	p, err := s.GlobalRank(ctx, roleID, t, page, pageSize)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.engine.AttachSelf(ctx, p, uid)
}

// SelfRank resolves one account's position without caching.
func (s *Service) SelfRank(ctx context.Context, uid, roleID string, t RankType) (*int, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery("self", time.Since(start)) }()
	return s.engine.SelfRank(ctx, uid, roleID, t)
}

// GroupRank ranks roleID among uids, or among the uids bound to groupID when uids is empty.
func (s *Service) GroupRank(ctx context.Context, uids []string, groupID, roleID string, t RankType, limit int) ([]Entry, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery("group", time.Since(start)) }()

	uids, owners, err := s.resolve(ctx, uids, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.GroupRank(ctx, uids, roleID, t, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserID = owners[entries[i].UID]
	}
	return entries, nil
}

// TotalRank returns a cached total power page with uid's live position attached.
func (s *Service) TotalRank(ctx context.Context, page, pageSize int, uid string) (*TotalBoard, error) {
	page, pageSize = s.engine.normalize(page, pageSize)
	key := fmt.Sprintf("%s%d:%d", totalKey, page, pageSize)
	board, err := cached(ctx, s, "total", key, func(ctx context.Context) (*TotalBoard, error) {
		return s.engine.TotalRank(ctx, page, pageSize, "")
	})
	if err != nil || uid == "" {
		return board, err
	}

	out := *board
	for i := range out.Entries {
		if out.Entries[i].UID == uid {
			self := out.Entries[i]
			out.Self = &self
			return &out, nil
		}
	}
	out.Self, err = s.engine.selfTotal(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupTotalRank ranks a group's accounts by total power.
func (s *Service) GroupTotalRank(ctx context.Context, uids []string, groupID string) ([]TotalEntry, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery("group_total", time.Since(start)) }()

	uids, owners, err := s.resolve(ctx, uids, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.GroupTotalRank(ctx, uids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserID = owners[entries[i].UID]
	}
	return entries, nil
}

func (s *Service) resolve(ctx context.Context, uids []string, groupID string) ([]string, map[string]string, error) {
	if len(uids) > 0 || groupID == "" || s.groups == nil {
		return uids, nil, nil
	}
	return s.groups.GroupUIDs(ctx, groupID)
}

// SnapshotsChanged drops cached pages for the changed characters and the total board.
func (s *Service) SnapshotsChanged(ctx context.Context, uid string, roleIDs []string) {
	for _, id := range roleIDs {
		if err := s.cache.DeletePrefix(ctx, roleKey(id)); err != nil {
			s.logger.Warn("Ranking cache invalidation failed",
				zap.String("uid", uid), zap.String("role_id", id), zap.Error(err))
		}
	}
	if len(roleIDs) > 0 {
		if err := s.cache.DeletePrefix(ctx, totalKey); err != nil {
			s.logger.Warn("Ranking cache invalidation failed", zap.String("uid", uid), zap.Error(err))
		}
	}
}

// AccountsChanged drops every cached board. Account validity filters all of
// them, so no page can be kept.
func (s *Service) AccountsChanged(ctx context.Context, uids []string) {
	for _, prefix := range []string{rankPrefix, totalKey} {
		if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
			s.logger.Warn("Ranking cache invalidation failed",
				zap.Strings("uids", uids), zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
