package integrity

import (
	"context"
	"errors"

	"roleboard/core/storage"
	"roleboard/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageDisabled is returned by the archive checks when no storage client is configured.
var ErrStorageDisabled = errors.New("storage is not configured")

// Deps bundles what the checks inspect. Storage and Cache are optional.
type Deps struct {
	DB      *gorm.DB
	Models  []any
	Storage storage.Client
	Bucket  string
	Region  string
	Cache   checks.Pinger
	Logger  *zap.Logger
}

// Service handles integrity checks.
type Service struct {
	deps   Deps
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps, logger: deps.Logger}
}

// CheckSchema compares the database tables with the models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.deps.DB, s.deps.Models...)
}

// CheckArchive inspects the archive bucket.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.deps.Storage == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckArchive(ctx, s.deps.Storage, s.deps.Bucket)
}

// FixArchive creates the archive bucket.
func (s *Service) FixArchive(ctx context.Context) error {
	if s.deps.Storage == nil {
		return ErrStorageDisabled
	}
	return checks.FixArchive(ctx, s.deps.Storage, s.deps.Bucket, s.deps.Region)
}

// CheckCache pings the ranking cache.
func (s *Service) CheckCache(ctx context.Context) checks.CacheReport {
	return checks.CheckCache(ctx, s.deps.Cache)
}
