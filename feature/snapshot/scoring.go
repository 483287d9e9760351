package snapshot

import (
	"context"
	"fmt"
	"math"
	"strings"

	"roleboard/core/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScoreFunction derives build score and expected damage from one blob.
// damage may carry thousands separators.
type ScoreFunction interface {
	Score(ctx context.Context, b Blob) (score float64, damage string, err error)
}

// ScoreStatus records how a character's values were obtained.
type ScoreStatus string

const (
	StatusScored   ScoreStatus = "scored"
	StatusUngeared ScoreStatus = "ungeared"
	StatusFailed   ScoreStatus = "failed"
)

// ScoreResult is the stored score and damage of one character.
type ScoreResult struct {
	Score  float64     `json:"score"`
	Damage float64     `json:"damage"`
	Status ScoreStatus `json:"status"`
}

// ScoringStage runs the ScoreFunction over characters, never failing the batch.
type ScoringStage struct {
	fn      ScoreFunction
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewScoringStage creates a scoring stage.
func NewScoringStage(fn ScoreFunction, logger *zap.Logger, m *metrics.Metrics) *ScoringStage {
	return &ScoringStage{fn: fn, logger: logger, metrics: m}
}

// ScoreAll scores every blob and returns results keyed by role id.
func (s *ScoringStage) ScoreAll(ctx context.Context, uid string, blobs []Blob) map[string]ScoreResult {
	out := make(map[string]ScoreResult, len(blobs))
	for _, b := range blobs {
		roleID := b.RoleID()
		res := s.scoreOne(ctx, uid, b)
		s.metrics.Scored(string(res.Status))
		out[roleID] = res
	}
	return out
}

func (s *ScoringStage) scoreOne(ctx context.Context, uid string, b Blob) ScoreResult {
	if !b.HasEquipment() {
		return ScoreResult{Status: StatusUngeared}
	}

	score, damage, err := s.call(ctx, b)
	if err == nil && !finite(score) {
		err = fmt.Errorf("non-finite score %v", score)
	}
	if err == nil {
		var parsed float64
		parsed, err = ParseDamage(damage)
		if err == nil {
			return ScoreResult{Score: RoundScore(score), Damage: parsed, Status: StatusScored}
		}
	}

	s.logger.Warn("Scoring failed, storing zero values",
		zap.String("uid", uid),
		zap.String("role_id", b.RoleID()),
		zap.Error(err),
	)
	return ScoreResult{Status: StatusFailed}
}

func (s *ScoringStage) call(ctx context.Context, b Blob) (score float64, damage string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("score function panicked: %v", r)
		}
	}()
	return s.fn.Score(ctx, b)
}

// SplitResults separates results into score and damage maps.
func SplitResults(results map[string]ScoreResult) (scores, damages map[string]float64) {
	scores = make(map[string]float64, len(results))
	damages = make(map[string]float64, len(results))
	for id, r := range results {
		scores[id] = r.Score
		damages[id] = r.Damage
	}
	return scores, damages
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RoundScore rounds to two decimal places and clamps negatives to zero.
// NaN and infinities round to zero.
func RoundScore(v float64) float64 {
	if v <= 0 || !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ParseDamage strips thousands separators and parses the number.
// An empty string is zero.
func ParseDamage(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid damage %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, nil
	}
	f := d.InexactFloat64()
	if !finite(f) {
		return 0, fmt.Errorf("damage %q out of range", s)
	}
	return f, nil
}
