package holdrate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"roleboard/feature/snapshot/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregator recomputes population-wide character ownership.
type Aggregator struct {
	db         *gorm.DB
	activeDays int
	now        func() time.Time
}

// NewAggregator creates an aggregator. activeDays <= 0 uses 30.
func NewAggregator(db *gorm.DB, activeDays int) *Aggregator {
	if activeDays <= 0 {
		activeDays = defaultActiveDays
	}
	return &Aggregator{db: db, activeDays: activeDays, now: time.Now}
}

type chainCount struct {
	RoleID   string
	RoleName string
	ChainNum int
	Holders  int
}

// activeAccounts selects the distinct uids of valid accounts refreshed inside the window.
func (a *Aggregator) activeAccounts(ctx context.Context, since time.Time) *gorm.DB {
	return a.db.WithContext(ctx).
		Model(&models.Account{}).
		Distinct("uid").
		Where("credential IS NOT NULL AND credential <> ''").
		Where("COALESCE(status, '') = ''").
		Where("updated_at >= ?", since)
}

// Run recomputes every character's hold rate and returns how many rows were
// written. Rows of characters nobody holds any more are left untouched.
func (a *Aggregator) Run(ctx context.Context) (updated int, population int64, err error) {
	now := a.now()
	since := now.AddDate(0, 0, -a.activeDays)

	if err := a.db.WithContext(ctx).Table("(?) AS active", a.activeAccounts(ctx, since)).Count(&population).Error; err != nil {
		return 0, 0, fmt.Errorf("count active accounts: %w", err)
	}
	if population == 0 {
		return 0, 0, nil
	}

	var counts []chainCount
	err = a.db.WithContext(ctx).
		Model(&models.CharacterSnapshot{}).
		Select("role_id, MAX(role_name) AS role_name, chain_num, COUNT(DISTINCT uid) AS holders").
		Where("uid IN (?)", a.activeAccounts(ctx, since)).
		Group("role_id, chain_num").
		Scan(&counts).Error
	if err != nil {
		return 0, population, fmt.Errorf("count holders: %w", err)
	}

	rows := buildRows(counts, population, now)
	if len(rows) == 0 {
		return 0, population, nil
	}

	err = a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"char_name", "total_players", "hold_count", "hold_rate", "chain_distribution", "update_time"}),
	}).CreateInBatches(rows, 100).Error
	if err != nil {
		return 0, population, fmt.Errorf("upsert hold rates: %w", err)
	}
	return len(rows), population, nil
}

func buildRows(counts []chainCount, population int64, now time.Time) []models.CharacterHoldRate {
	type acc struct {
		name   string
		total  int
		chains map[int]int
	}
	byRole := make(map[string]*acc)
	for _, c := range counts {
		r, ok := byRole[c.RoleID]
		if !ok {
			r = &acc{chains: make(map[int]int)}
			byRole[c.RoleID] = r
		}
		if c.RoleName != "" {
			r.name = c.RoleName
		}
		r.total += c.Holders
		r.chains[c.ChainNum] += c.Holders
	}

	ids := make([]string, 0, len(byRole))
	for id := range byRole {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]models.CharacterHoldRate, 0, len(ids))
	for _, id := range ids {
		r := byRole[id]
		dist := make(map[string]float64, len(r.chains))
		for chain, n := range r.chains {
			if n > 0 {
				dist[strconv.Itoa(chain)] = percent(int64(n), int64(r.total))
			}
		}
		rows = append(rows, models.CharacterHoldRate{
			RoleID:            id,
			CharName:          r.name,
			TotalPlayers:      int(population),
			HoldCount:         r.total,
			HoldRate:          percent(int64(r.total), population),
			ChainDistribution: datatypes.NewJSONType(dist),
			UpdateTime:        now,
		})
	}
	return rows
}

// percent returns part/whole*100 rounded to two decimals.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	v, _ := decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).
		Round(2).
		Float64()
	return v
}

// List returns every stored hold-rate row, highest rate first.
func (a *Aggregator) List(ctx context.Context) ([]models.CharacterHoldRate, error) {
	var rows []models.CharacterHoldRate
	if err := a.db.WithContext(ctx).Order("hold_rate DESC, role_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list hold rates: %w", err)
	}
	return rows, nil
}

// Get returns one character's hold rate.
func (a *Aggregator) Get(ctx context.Context, roleID string) (*models.CharacterHoldRate, error) {
	var row models.CharacterHoldRate
	if err := a.db.WithContext(ctx).Where("role_id = ?", roleID).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
