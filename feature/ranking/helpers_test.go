package ranking_test

import (
	"fmt"
	"testing"

	"roleboard/core/database"
	"roleboard/feature/ranking"
	"roleboard/feature/snapshot/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))
	return db
}

func newEngine(t *testing.T) (*ranking.Engine, *gorm.DB) {
	db := newTestDB(t)
	return ranking.NewEngine(db, ranking.Config{PageSize: 20, GroupLimit: 100, TotalFloor: 175, TopCharacters: 10}), db
}

func account(t *testing.T, db *gorm.DB, uid string, valid bool) {
	t.Helper()
	acc := models.Account{UID: uid, UserID: "user-" + uid, BotID: "qq", Credential: "tok-" + uid}
	if !valid {
		acc.Status = "invalid"
	}
	require.NoError(t, db.Create(&acc).Error)
}

func char(t *testing.T, db *gorm.DB, uid, roleID string, score, damage float64) {
	t.Helper()
	require.NoError(t, db.Create(&models.CharacterSnapshot{
		UID:      uid,
		RoleID:   roleID,
		RoleName: "role-" + roleID,
		Score:    score,
		Damage:   damage,
		RawData:  []byte(`{}`),
	}).Error)
}

// population creates n valid accounts holding roleID with distinct scores.
func population(t *testing.T, db *gorm.DB, roleID string, n int) []string {
	t.Helper()
	uids := make([]string, 0, n)
	for i := range n {
		uid := fmt.Sprintf("1%08d", i)
		account(t, db, uid, true)
		char(t, db, uid, roleID, float64(100+i), float64(1000*(n-i)))
		uids = append(uids, uid)
	}
	return uids
}

func entryUIDs(entries []ranking.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UID)
	}
	return out
}
