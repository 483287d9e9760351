package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Account is one game profile and its upstream credential.
type Account struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UID        string    `gorm:"column:uid;size:32;not null;index" json:"uid"`
	UserID     string    `gorm:"column:user_id;size:64;index" json:"user_id"`
	BotID      string    `gorm:"column:bot_id;size:32" json:"bot_id"`
	Credential string    `gorm:"column:credential;type:text" json:"-"`
	Status     string    `gorm:"column:status;size:64" json:"status"`
	Platform   string    `gorm:"column:platform;size:32" json:"platform"`
	UpdatedAt  time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Valid reports whether the credential is present and not invalidated.
func (a Account) Valid() bool {
	return a.Credential != "" && a.Status == ""
}

// Binding maps a platform user to game uids and chat groups.
// UID and GroupID hold underscore-delimited lists.
type Binding struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	UserID  string `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	BotID   string `gorm:"column:bot_id;size:32;not null" json:"bot_id"`
	UID     string `gorm:"column:uid;type:text" json:"uid"`
	GroupID string `gorm:"column:group_id;type:text" json:"group_id"`
}

func (Binding) TableName() string { return "bindings" }

// UIDs splits the bound uid list.
func (b Binding) UIDs() []string { return SplitList(b.UID) }

// Groups splits the group list.
func (b Binding) Groups() []string { return SplitList(b.GroupID) }

// ListSeparator delimits the uid and group lists of a Binding.
const ListSeparator = "_"

// SplitList splits an underscore-delimited list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ListSeparator) {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// CharacterSnapshot is one stored character of one account.
type CharacterSnapshot struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	UID       string         `gorm:"column:uid;size:32;not null;uniqueIndex:idx_snapshot_uid_role" json:"uid"`
	RoleID    string         `gorm:"column:role_id;size:32;not null;uniqueIndex:idx_snapshot_uid_role;index:idx_snapshot_role_score,priority:1;index:idx_snapshot_role_damage,priority:1" json:"role_id"`
	RoleName  string         `gorm:"column:role_name;size:64;not null;default:''" json:"role_name"`
	ChainNum  int            `gorm:"column:chain_num;not null;default:0" json:"chain_num"`
	Score     float64        `gorm:"column:score;not null;default:0;index:idx_snapshot_role_score,priority:2" json:"score"`
	Damage    float64        `gorm:"column:damage;not null;default:0;index:idx_snapshot_role_damage,priority:2" json:"damage"`
	RawData   datatypes.JSON `gorm:"column:raw_data" json:"raw_data"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (CharacterSnapshot) TableName() string { return "character_snapshots" }

// CharacterHoldRate is the population-wide ownership statistic of one character.
type CharacterHoldRate struct {
	RoleID       string  `gorm:"column:role_id;primaryKey;size:32" json:"role_id"`
	CharName     string  `gorm:"column:char_name;size:64" json:"char_name"`
	TotalPlayers int     `gorm:"column:total_players;not null;default:0" json:"total_players"`
	HoldCount    int     `gorm:"column:hold_count;not null;default:0" json:"hold_count"`
	HoldRate     float64 `gorm:"column:hold_rate;not null;default:0" json:"hold_rate"`
	// ChainDistribution maps chain tier to the percentage of holders at that tier.
	ChainDistribution datatypes.JSONType[map[string]float64] `gorm:"column:chain_distribution" json:"chain_distribution"`
	UpdateTime        time.Time                              `gorm:"column:update_time" json:"update_time"`
}

func (CharacterHoldRate) TableName() string { return "character_hold_rates" }

// All returns every model for migrations.
func All() []any {
	return []any{&Account{}, &Binding{}, &CharacterSnapshot{}, &CharacterHoldRate{}}
}
