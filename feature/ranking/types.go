package ranking

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RankType selects the primary ordering metric.
type RankType string

const (
	ByScore  RankType = "score"
	ByDamage RankType = "damage"
)

// ParseRankType defaults to ByScore for anything but "damage".
func ParseRankType(s string) RankType {
	if s == string(ByDamage) {
		return ByDamage
	}
	return ByScore
}

// Entry is one ranked character.
type Entry struct {
	Rank       int     `json:"rank"`
	UID        string  `json:"uid"`
	UserID     string  `json:"user_id,omitempty"`
	RoleID     string  `json:"role_id"`
	RoleName   string  `json:"role_name"`
	ChainNum   int     `json:"chain_num"`
	Score      float64 `json:"score"`
	Damage     float64 `json:"damage"`
	DamageText string  `json:"damage_text"`
	// Appended marks a self entry added after the displayed window.
	Appended bool `json:"appended,omitempty"`
}

// Page is one page of a global character ranking.
type Page struct {
	RoleID   string   `json:"role_id"`
	Type     RankType `json:"type"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Total    int64    `json:"total"`
	Entries  []Entry  `json:"entries"`
}

// Board is a page plus the requesting account's position.
type Board struct {
	Page
	Self         *Entry  `json:"self,omitempty"`
	AppendedSelf bool    `json:"appended_self"`
	AvgScore     float64 `json:"avg_score"`
	AvgDamage    float64 `json:"avg_damage"`
}

// CharacterScore is one character counted toward total power.
type CharacterScore struct {
	RoleID   string  `json:"role_id"`
	RoleName string  `json:"role_name"`
	Score    float64 `json:"score"`
}

// TotalEntry is one account in a total power ranking.
type TotalEntry struct {
	Rank          int              `json:"rank"`
	UID           string           `json:"uid"`
	UserID        string           `json:"user_id,omitempty"`
	TotalScore    float64          `json:"total_score"`
	CharCount     int              `json:"char_count"`
	TopCharacters []CharacterScore `json:"top_characters"`
}

// TotalBoard is one page of the total power ranking.
type TotalBoard struct {
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int64        `json:"total"`
	Entries  []TotalEntry `json:"entries"`
	// Self is nil when the account has no qualifying characters.
	Self *TotalEntry `json:"self,omitempty"`
}

var printer = message.NewPrinter(language.English)

// DamageText formats damage with thousands separators. Non-positive values render as "0".
func DamageText(d float64) string {
	if d <= 0 {
		return "0"
	}
	return printer.Sprintf("%d", int64(d))
}
