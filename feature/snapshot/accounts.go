package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"roleboard/feature/snapshot/models"

	"gorm.io/gorm"
)

// Bind result codes.
const (
	BindOK          = 0
	BindBadLength   = -1
	BindAlreadyDone = -2
	BindNotDigits   = -3
)

// AccountListener is told when the credential state of accounts changes.
// uids is nil for bulk changes.
type AccountListener interface {
	AccountsChanged(ctx context.Context, uids []string)
}

// Accounts reads and writes accounts and bindings.
type Accounts struct {
	db        *gorm.DB
	now       func() time.Time
	listeners []AccountListener
}

// NewAccounts creates an account repository.
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db, now: time.Now}
}

// AddListener registers an account listener.
func (a *Accounts) AddListener(l AccountListener) {
	a.listeners = append(a.listeners, l)
}

func (a *Accounts) notify(ctx context.Context, uids []string) {
	for _, l := range a.listeners {
		l.AccountsChanged(ctx, uids)
	}
}

// validScope restricts a query to accounts with a live credential.
func validScope(db *gorm.DB) *gorm.DB {
	return db.Where("credential <> ? AND credential IS NOT NULL", "").
		Where("status = ? OR status IS NULL", "")
}

// Credential picks the credential for refreshing uid on behalf of userID.
// The caller's own valid credential for uid wins (owner = true). Otherwise
// any valid credential is borrowed, preferring one bound to uid.
func (a *Accounts) Credential(ctx context.Context, uid, userID, botID string) (acc *models.Account, owner bool, err error) {
	var own models.Account
	err = a.db.WithContext(ctx).Scopes(validScope).
		Where("uid = ? AND user_id = ? AND bot_id = ?", uid, userID, botID).
		First(&own).Error
	if err == nil {
		return &own, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up credential: %w", err)
	}

	// Prefer a credential registered for uid by someone else, then any.
	for _, scope := range []func(*gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB { return db.Where("uid = ?", uid) },
		func(db *gorm.DB) *gorm.DB { return db },
	} {
		var borrowed models.Account
		err = a.db.WithContext(ctx).Scopes(validScope, scope).
			Order("updated_at DESC").
			First(&borrowed).Error
		if err == nil {
			return &borrowed, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed to look up credential: %w", err)
		}
	}
	return nil, false, ErrNoCredential
}

// MarkCredentialInvalid flags the credential of uid with reason.
func (a *Accounts) MarkCredentialInvalid(ctx context.Context, uid, credential, reason string) error {
	res := a.db.WithContext(ctx).Model(&models.Account{}).
		Where("uid = ? AND credential = ?", uid, credential).
		UpdateColumn("status", reason)
	if res.Error != nil {
		return fmt.Errorf("failed to mark credential invalid: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		a.notify(ctx, []string{uid})
	}
	return nil
}

// Save inserts or updates the account identified by (uid, user_id, bot_id)
// and refreshes its updated_at.
func (a *Accounts) Save(ctx context.Context, acc *models.Account) error {
	acc.UpdatedAt = a.now()
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Account
		err := tx.Where("uid = ? AND user_id = ? AND bot_id = ?", acc.UID, acc.UserID, acc.BotID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(acc).Error
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		acc.ID = existing.ID
		return tx.Save(acc).Error
	})
	if err != nil {
		return err
	}
	a.notify(ctx, []string{acc.UID})
	return nil
}

// Touch records that uid's basic account info was refreshed.
func (a *Accounts) Touch(ctx context.Context, uid string) error {
	return a.db.WithContext(ctx).Model(&models.Account{}).
		Where("uid = ?", uid).
		Update("updated_at", a.now()).Error
}

// PruneInvalid deletes accounts whose credential is empty or invalidated.
func (a *Accounts) PruneInvalid(ctx context.Context) (int64, error) {
	res := a.db.WithContext(ctx).
		Where("credential = ? OR credential IS NULL OR status <> ?", "", "").
		Delete(&models.Account{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune accounts: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		a.notify(ctx, nil)
	}
	return res.RowsAffected, nil
}

// GroupUIDs returns every uid bound by a member of groupID and the owner of each.
func (a *Accounts) GroupUIDs(ctx context.Context, groupID string) ([]string, map[string]string, error) {
	var bindings []models.Binding
	err := a.db.WithContext(ctx).
		Where("group_id LIKE ?", "%"+groupID+"%").
		Find(&bindings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	var uids []string
	owners := make(map[string]string)
	for _, b := range bindings {
		if !slices.Contains(b.Groups(), groupID) {
			continue
		}
		for _, uid := range b.UIDs() {
			if _, seen := owners[uid]; seen {
				continue
			}
			owners[uid] = b.UserID
			uids = append(uids, uid)
		}
	}
	return uids, owners, nil
}

// BindUID links uid (and optionally groupID) to a platform user.
// lengthLimit 0 disables the length check.
func (a *Accounts) BindUID(ctx context.Context, userID, botID, uid, groupID string, lengthLimit int) (int, error) {
	if lengthLimit > 0 && len(uid) != lengthLimit {
		return BindBadLength, nil
	}
	if !isDigits(uid) {
		return BindNotDigits, nil
	}

	code := BindOK
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Binding
		err := tx.Where("user_id = ? AND bot_id = ?", userID, botID).First(&b).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.Binding{UserID: userID, BotID: botID, UID: uid, GroupID: groupID}).Error
		}
		if err != nil {
			return err
		}

		uids := b.UIDs()
		groups := b.Groups()
		changed := false
		if slices.Contains(uids, uid) {
			code = BindAlreadyDone
		} else {
			uids = append(uids, uid)
			changed = true
		}
		if groupID != "" && !slices.Contains(groups, groupID) {
			groups = append(groups, groupID)
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.Model(&b).Updates(map[string]any{
			"uid":      strings.Join(uids, models.ListSeparator),
			"group_id": strings.Join(groups, models.ListSeparator),
		}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to bind uid: %w", err)
	}
	return code, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
