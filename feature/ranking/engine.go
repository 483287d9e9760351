package ranking

import (
	"context"
	"errors"
	"fmt"

	"roleboard/feature/snapshot/models"

	"gorm.io/gorm"
)

// validAccount restricts character rows to accounts with a usable credential.
const validAccount = "EXISTS (SELECT 1 FROM accounts WHERE accounts.uid = character_snapshots.uid" +
	" AND accounts.credential IS NOT NULL AND accounts.credential <> ''" +
	" AND COALESCE(accounts.status, '') = '')"

const entryColumns = "character_snapshots.uid, character_snapshots.role_id, character_snapshots.role_name," +
	" character_snapshots.chain_num, character_snapshots.score, character_snapshots.damage"

// MaxPageSize caps any requested page size.
const MaxPageSize = 100

// Engine answers leaderboard queries straight from the snapshot table.
type Engine struct {
	db  *gorm.DB
	cfg Config
}

// NewEngine creates a ranking engine. Zero config values fall back to defaults.
func NewEngine(db *gorm.DB, cfg Config) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.GroupLimit <= 0 {
		cfg.GroupLimit = 100
	}
	if cfg.TopCharacters <= 0 {
		cfg.TopCharacters = 10
	}
	return &Engine{db: db, cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) characters(ctx context.Context, roleID string) *gorm.DB {
	return e.db.WithContext(ctx).
		Model(&models.CharacterSnapshot{}).
		Where("character_snapshots.role_id = ?", roleID).
		Where(validAccount)
}

func columns(t RankType) (primary, secondary string) {
	if t == ByDamage {
		return "character_snapshots.damage", "character_snapshots.score"
	}
	return "character_snapshots.score", "character_snapshots.damage"
}

func orderBy(t RankType) string {
	primary, secondary := columns(t)
	return primary + " DESC, " + secondary + " DESC, character_snapshots.uid ASC"
}

// betterThan matches rows ranked strictly above row under the full tie-break order.
func betterThan(db *gorm.DB, t RankType, row *models.CharacterSnapshot) *gorm.DB {
	primary, secondary := columns(t)
	pv, sv := row.Score, row.Damage
	if t == ByDamage {
		pv, sv = row.Damage, row.Score
	}
	cond := fmt.Sprintf("((%[1]s > ?) OR (%[1]s = ? AND %[2]s > ?) OR (%[1]s = ? AND %[2]s = ? AND character_snapshots.uid < ?))",
		primary, secondary)
	return db.Where(cond, pv, pv, sv, pv, sv, row.UID)
}

func toEntries(rows []models.CharacterSnapshot, offset int) []Entry {
	out := make([]Entry, 0, len(rows))
	for i, r := range rows {
		out = append(out, toEntry(r, offset+i+1))
	}
	return out
}

func toEntry(r models.CharacterSnapshot, rank int) Entry {
	return Entry{
		Rank:       rank,
		UID:        r.UID,
		RoleID:     r.RoleID,
		RoleName:   r.RoleName,
		ChainNum:   r.ChainNum,
		Score:      r.Score,
		Damage:     r.Damage,
		DamageText: DamageText(r.Damage),
	}
}

// GroupRank ranks roleID among the given uids. limit <= 0 uses the configured cap.
func (e *Engine) GroupRank(ctx context.Context, uids []string, roleID string, t RankType, limit int) ([]Entry, error) {
	if len(uids) == 0 {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = e.cfg.GroupLimit
	}
	var rows []models.CharacterSnapshot
	err := e.characters(ctx, roleID).
		Select(entryColumns).
		Where("character_snapshots.uid IN ?", uids).
		Order(orderBy(t)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group rank %s: %w", roleID, err)
	}
	return toEntries(rows, 0), nil
}

func (e *Engine) normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = e.cfg.PageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// GlobalRank returns one page of roleID's ranking and the total row count.
func (e *Engine) GlobalRank(ctx context.Context, roleID string, t RankType, page, pageSize int) (*Page, error) {
	page, pageSize = e.normalize(page, pageSize)

	var total int64
	if err := e.characters(ctx, roleID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("global rank count %s: %w", roleID, err)
	}

	offset := (page - 1) * pageSize
	var rows []models.CharacterSnapshot
	err := e.characters(ctx, roleID).
		Select(entryColumns).
		Order(orderBy(t)).
		Offset(offset).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("global rank %s: %w", roleID, err)
	}

	return &Page{
		RoleID:   roleID,
		Type:     t,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Entries:  toEntries(rows, offset),
	}, nil
}

func (e *Engine) selfRow(ctx context.Context, uid, roleID string) (*models.CharacterSnapshot, error) {
	var row models.CharacterSnapshot
	err := e.characters(ctx, roleID).
		Select(entryColumns).
		Where("character_snapshots.uid = ?", uid).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SelfRank returns the 1-based position of uid's roleID character, or nil when
// the character is absent or the account is not valid.
func (e *Engine) SelfRank(ctx context.Context, uid, roleID string, t RankType) (*int, error) {
	row, err := e.selfRow(ctx, uid, roleID)
	if err != nil {
		return nil, fmt.Errorf("self rank %s/%s: %w", uid, roleID, err)
	}
	if row == nil {
		return nil, nil
	}
	rank, err := e.rankOf(ctx, row, t)
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

func (e *Engine) rankOf(ctx context.Context, row *models.CharacterSnapshot, t RankType) (int, error) {
	var better int64
	if err := betterThan(e.characters(ctx, row.RoleID), t, row).Count(&better).Error; err != nil {
		return 0, fmt.Errorf("self rank %s/%s: %w", row.UID, row.RoleID, err)
	}
	return int(better) + 1, nil
}

// AttachSelf locates uid on p, appending its entry when it ranks outside the page.
// Averages cover only the page's own entries.
func (e *Engine) AttachSelf(ctx context.Context, p *Page, uid string) (*Board, error) {
	b := &Board{Page: *p}
	b.Entries = append([]Entry(nil), p.Entries...)

	if n := len(b.Entries); n > 0 {
		var score, damage float64
		for _, en := range b.Entries {
			score += en.Score
			damage += en.Damage
		}
		b.AvgScore = score / float64(n)
		b.AvgDamage = damage / float64(n)
	}

	if uid == "" {
		return b, nil
	}
	for i := range b.Entries {
		if b.Entries[i].UID == uid {
			self := b.Entries[i]
			b.Self = &self
			return b, nil
		}
	}

	row, err := e.selfRow(ctx, uid, p.RoleID)
	if err != nil {
		return nil, fmt.Errorf("self rank %s/%s: %w", uid, p.RoleID, err)
	}
	if row == nil {
		return b, nil
	}
	rank, err := e.rankOf(ctx, row, p.Type)
	if err != nil {
		return nil, err
	}
	self := toEntry(*row, rank)
	self.Appended = true
	b.Self = &self
	b.AppendedSelf = true
	b.Entries = append(b.Entries, self)
	return b, nil
}

// TopWithSelf returns a page of roleID's ranking with uid's position resolved.
func (e *Engine) TopWithSelf(ctx context.Context, roleID string, t RankType, page, pageSize int, uid string) (*Board, error) {
	p, err := e.GlobalRank(ctx, roleID, t, page, pageSize)
	if err != nil {
		return nil, err
	}
	return e.AttachSelf(ctx, p, uid)
}

type totalRow struct {
	UID        string
	TotalScore float64
	CharCount  int
}

// totals aggregates qualifying scores per valid account.
func (e *Engine) totals(ctx context.Context, uids []string) *gorm.DB {
	q := e.db.WithContext(ctx).
		Model(&models.CharacterSnapshot{}).
		Select("character_snapshots.uid AS uid, SUM(character_snapshots.score) AS total_score, COUNT(*) AS char_count").
		Where("character_snapshots.score >= ?", e.cfg.TotalFloor).
		Where(validAccount)
	if uids != nil {
		q = q.Where("character_snapshots.uid IN ?", uids)
	}
	return q.Group("character_snapshots.uid")
}

func (e *Engine) totalsTable(ctx context.Context, uids []string) *gorm.DB {
	return e.db.WithContext(ctx).Table("(?) AS totals", e.totals(ctx, uids))
}

// TotalRank ranks accounts by the sum of their character scores at or above
// the floor. uid, when set, is resolved into Self.
func (e *Engine) TotalRank(ctx context.Context, page, pageSize int, uid string) (*TotalBoard, error) {
	page, pageSize = e.normalize(page, pageSize)

	var total int64
	if err := e.totalsTable(ctx, nil).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("total rank count: %w", err)
	}

	offset := (page - 1) * pageSize
	var rows []totalRow
	err := e.totalsTable(ctx, nil).
		Order("totals.total_score DESC, totals.uid ASC").
		Offset(offset).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("total rank: %w", err)
	}

	entries, err := e.totalEntries(ctx, rows, offset)
	if err != nil {
		return nil, err
	}
	board := &TotalBoard{Page: page, PageSize: pageSize, Total: total, Entries: entries}

	if uid == "" {
		return board, nil
	}
	for i := range entries {
		if entries[i].UID == uid {
			self := entries[i]
			board.Self = &self
			return board, nil
		}
	}
	board.Self, err = e.selfTotal(ctx, uid)
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (e *Engine) selfTotal(ctx context.Context, uid string) (*TotalEntry, error) {
	var rows []totalRow
	if err := e.totalsTable(ctx, nil).Where("totals.uid = ?", uid).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("total rank %s: %w", uid, err)
	}
	if len(rows) == 0 || rows[0].TotalScore <= 0 {
		return nil, nil
	}

	var higher int64
	if err := e.totalsTable(ctx, nil).Where("totals.total_score > ?", rows[0].TotalScore).Count(&higher).Error; err != nil {
		return nil, fmt.Errorf("total rank %s: %w", uid, err)
	}

	entries, err := e.totalEntries(ctx, rows, int(higher))
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// GroupTotalRank ranks the given uids by total power. Accounts without a
// qualifying character are left out.
func (e *Engine) GroupTotalRank(ctx context.Context, uids []string) ([]TotalEntry, error) {
	if len(uids) == 0 {
		return []TotalEntry{}, nil
	}
	var rows []totalRow
	err := e.totalsTable(ctx, uids).
		Order("totals.total_score DESC, totals.uid ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group total rank: %w", err)
	}
	return e.totalEntries(ctx, rows, 0)
}

func (e *Engine) totalEntries(ctx context.Context, rows []totalRow, offset int) ([]TotalEntry, error) {
	out := make([]TotalEntry, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	uids := make([]string, 0, len(rows))
	for _, r := range rows {
		uids = append(uids, r.UID)
	}
	top, err := e.topCharacters(ctx, uids)
	if err != nil {
		return nil, err
	}

	for i, r := range rows {
		chars := top[r.UID]
		if chars == nil {
			chars = []CharacterScore{}
		}
		out = append(out, TotalEntry{
			Rank:          offset + i + 1,
			UID:           r.UID,
			TotalScore:    r.TotalScore,
			CharCount:     r.CharCount,
			TopCharacters: chars,
		})
	}
	return out, nil
}

func (e *Engine) topCharacters(ctx context.Context, uids []string) (map[string][]CharacterScore, error) {
	var rows []models.CharacterSnapshot
	err := e.db.WithContext(ctx).
		Model(&models.CharacterSnapshot{}).
		Select("uid, role_id, role_name, score").
		Where("uid IN ? AND score >= ?", uids, e.cfg.TotalFloor).
		Order("score DESC, role_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("total rank characters: %w", err)
	}

	out := make(map[string][]CharacterScore, len(uids))
	for _, r := range rows {
		if len(out[r.UID]) >= e.cfg.TopCharacters {
			continue
		}
		out[r.UID] = append(out[r.UID], CharacterScore{RoleID: r.RoleID, RoleName: r.RoleName, Score: r.Score})
	}
	return out, nil
}
