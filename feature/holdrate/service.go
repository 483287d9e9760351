package holdrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roleboard/core/metrics"
	"roleboard/core/telemetry"
	"roleboard/feature/snapshot/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Service runs the hold-rate job on a daily schedule and on demand.
type Service struct {
	cfg        Config
	aggregator *Aggregator
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// mu serializes runs.
	mu   sync.Mutex
	cron *cron.Cron
}

// NewService creates a hold-rate service.
func NewService(cfg Config, aggregator *Aggregator, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{cfg: cfg, aggregator: aggregator, logger: logger, metrics: m}
}

// Schedule returns the cron expression of the daily run.
func (s *Service) Schedule() string {
	hour, minute := s.cfg.RunTime()
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// NextRun returns the first scheduled run after t.
func (s *Service) NextRun(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.Schedule())
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

// Start schedules the daily run. It does nothing when the job is disabled.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("Hold-rate schedule disabled")
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule(), func() {
		if _, err := s.Run(context.Background(), "scheduled"); err != nil {
			s.logger.Error("Scheduled hold-rate run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule hold-rate job: %w", err)
	}
	c.Start()
	s.cron = c

	hour, minute := s.cfg.RunTime()
	s.logger.Info("Hold-rate schedule started", zap.String("at", fmt.Sprintf("%02d:%02d", hour, minute)))
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (s *Service) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run recomputes hold rates once. trigger labels the run in logs.
func (s *Service) Run(ctx context.Context, trigger string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	l := s.logger.With(zap.String("run_id", runID), zap.String("trigger", trigger))
	ctx, span := telemetry.Tracer().Start(ctx, "holdrate.Run")
	span.SetAttributes(attribute.String("run_id", runID), attribute.String("trigger", trigger))
	defer span.End()

	start := time.Now()
	l.Info("Hold-rate recompute started")

	updated, population, err := s.aggregator.Run(ctx)
	if err != nil {
		span.RecordError(err)
		s.metrics.HoldRateRun("error", 0)
		l.Error("Hold-rate recompute failed", zap.Error(err))
		return 0, err
	}

	outcome := "ok"
	if population == 0 {
		outcome = "empty"
	}
	s.metrics.HoldRateRun(outcome, int(population))
	l.Info("Hold-rate recompute finished",
		zap.Int("updated", updated),
		zap.Int64("active_players", population),
		zap.Duration("duration", time.Since(start)),
	)
	return updated, nil
}

// Trigger runs the job on demand and returns a summary line.
func (s *Service) Trigger(ctx context.Context) string {
	updated, err := s.Run(ctx, "manual")
	if err != nil {
		return fmt.Sprintf("hold-rate update failed: %v", err)
	}
	return fmt.Sprintf("hold-rate update finished, %d characters updated", updated)
}

// List returns the stored hold rates.
func (s *Service) List(ctx context.Context) ([]models.CharacterHoldRate, error) {
	return s.aggregator.List(ctx)
}

// Get returns one character's hold rate.
func (s *Service) Get(ctx context.Context, roleID string) (*models.CharacterHoldRate, error) {
	return s.aggregator.Get(ctx, roleID)
}
