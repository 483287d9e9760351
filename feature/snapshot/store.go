package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roleboard/core/reconcile"
	"roleboard/feature/snapshot/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Store persists character snapshots with full-sync semantics.
type Store struct {
	db    *gorm.DB
	locks sync.Map
	now   func() time.Time
}

// NewStore creates a store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SyncResult reports what a Sync changed.
type SyncResult struct {
	Inserted  []string `json:"inserted"`
	Updated   []string `json:"updated"`
	Removed   []string `json:"removed"`
	Unchanged int      `json:"unchanged"`
}

// SyncInput is the character list a Sync writes for one account.
type SyncInput struct {
	Final   []Blob
	Scores  map[string]float64
	Damages map[string]float64
	// Committed, when set, runs after the transaction commits while the
	// account is still locked.
	Committed func(*SyncResult)
}

// BuildFunc derives a SyncInput from the rows currently stored for an account,
// ordered by role id.
type BuildFunc func(stored []models.CharacterSnapshot) (*SyncInput, error)

// Sync makes the stored set for uid exactly equal to final. Characters missing
// from scores or damages are stored with zero. Concurrent syncs of the same
// uid are serialized.
func (s *Store) Sync(ctx context.Context, uid string, final []Blob, scores, damages map[string]float64) (*SyncResult, error) {
	mu := s.lockFor(uid)
	mu.Lock()
	defer mu.Unlock()

	return s.sync(ctx, uid, &SyncInput{Final: final, Scores: scores, Damages: damages})
}

// SyncWith reads the stored rows of uid, passes them to build and syncs the
// result, all under the account lock. Concurrent read-modify-write refreshes
// of one account therefore never lose each other's characters.
func (s *Store) SyncWith(ctx context.Context, uid string, build BuildFunc) (*SyncResult, error) {
	mu := s.lockFor(uid)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.ListByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	in, err := build(existing)
	if err != nil {
		return nil, err
	}
	return s.sync(ctx, uid, in)
}

func (s *Store) sync(ctx context.Context, uid string, in *SyncInput) (*SyncResult, error) {
	final, scores, damages := in.Final, in.Scores, in.Damages
	now := s.now()
	rows := make([]models.CharacterSnapshot, 0, len(final))
	for _, b := range final {
		roleID := b.RoleID()
		if roleID == "" {
			continue
		}
		raw, err := b.Canonical()
		if err != nil {
			return nil, fmt.Errorf("failed to encode role %s: %w", roleID, err)
		}
		rows = append(rows, models.CharacterSnapshot{
			UID:       uid,
			RoleID:    roleID,
			RoleName:  b.RoleName(),
			ChainNum:  b.ChainNum(),
			Score:     scores[roleID],
			Damage:    damages[roleID],
			RawData:   datatypes.JSON(raw),
			UpdatedAt: now,
		})
	}

	result := &SyncResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.CharacterSnapshot
		if err := tx.Where("uid = ?", uid).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load snapshots: %w", err)
		}
		stored := make(map[string]models.CharacterSnapshot, len(existing))
		for _, row := range existing {
			stored[row.RoleID] = row
		}

		plan := reconcile.Diff(stored, rows, rowAdapter{}, reconcile.Options[string]{Mode: reconcile.Full})
		if _, err := reconcile.ApplyPlan(ctx, plan, &rowMutator{tx: tx, uid: uid}); err != nil {
			return err
		}

		for _, row := range plan.ToInsert {
			result.Inserted = append(result.Inserted, row.RoleID)
		}
		for _, row := range plan.ToUpdate {
			result.Updated = append(result.Updated, row.RoleID)
		}
		result.Removed = plan.ToRemove
		result.Unchanged = len(plan.Unchanged)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync uid %s: %w", uid, err)
	}
	if in.Committed != nil {
		in.Committed(result)
	}
	return result, nil
}

func (s *Store) lockFor(uid string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(uid, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ListByUID returns every snapshot of uid ordered by role id.
func (s *Store) ListByUID(ctx context.Context, uid string) ([]models.CharacterSnapshot, error) {
	var rows []models.CharacterSnapshot
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Order("role_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return rows, nil
}

// ListByUIDs returns every snapshot owned by any of uids.
func (s *Store) ListByUIDs(ctx context.Context, uids []string) ([]models.CharacterSnapshot, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	var rows []models.CharacterSnapshot
	if err := s.db.WithContext(ctx).Where("uid IN ?", uids).Order("uid, role_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return rows, nil
}

// RoleDataMap returns the stored blobs of uid keyed by role id.
func (s *Store) RoleDataMap(ctx context.Context, uid string) (map[string]Blob, error) {
	rows, err := s.ListByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Blob, len(rows))
	for _, row := range rows {
		b, err := DecodeBlob(row.RawData)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", row.RoleID, err)
		}
		out[row.RoleID] = b
	}
	return out, nil
}

// Get returns one snapshot.
func (s *Store) Get(ctx context.Context, uid, roleID string) (*models.CharacterSnapshot, error) {
	var row models.CharacterSnapshot
	err := s.db.WithContext(ctx).Where("uid = ? AND role_id = ?", uid, roleID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &row, nil
}

type rowAdapter struct{}

func (rowAdapter) Key(r models.CharacterSnapshot) string { return r.RoleID }

func (rowAdapter) Equal(stored, incoming models.CharacterSnapshot) bool {
	if stored.RoleName != incoming.RoleName || stored.ChainNum != incoming.ChainNum ||
		stored.Score != incoming.Score || stored.Damage != incoming.Damage {
		return false
	}
	if bytes.Equal(stored.RawData, incoming.RawData) {
		return true
	}
	a, err := DecodeBlob(stored.RawData)
	if err != nil {
		return false
	}
	b, err := DecodeBlob(incoming.RawData)
	if err != nil {
		return false
	}
	return a.Equal(b)
}

// rowMutator applies a plan inside the sync transaction.
type rowMutator struct {
	tx  *gorm.DB
	uid string
}

func (m *rowMutator) Insert(_ context.Context, row models.CharacterSnapshot) error {
	return m.tx.Create(&row).Error
}

func (m *rowMutator) Update(_ context.Context, row models.CharacterSnapshot) error {
	return m.tx.Model(&models.CharacterSnapshot{}).
		Where("uid = ? AND role_id = ?", m.uid, row.RoleID).
		Updates(map[string]any{
			"role_name":  row.RoleName,
			"chain_num":  row.ChainNum,
			"score":      row.Score,
			"damage":     row.Damage,
			"raw_data":   row.RawData,
			"updated_at": row.UpdatedAt,
		}).Error
}

func (m *rowMutator) Remove(ctx context.Context, roleID string) error {
	return m.RemoveBatch(ctx, []string{roleID})
}

func (m *rowMutator) RemoveBatch(_ context.Context, roleIDs []string) error {
	return m.tx.Where("uid = ? AND role_id IN ?", m.uid, roleIDs).Delete(&models.CharacterSnapshot{}).Error
}
