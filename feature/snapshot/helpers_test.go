package snapshot_test

import (
	"testing"

	"roleboard/core/database"
	"roleboard/feature/snapshot"
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

func character(roleID int, name string, chain int) snapshot.Blob {
	chains := make([]any, 0, 6)
	for i := 1; i <= 6; i++ {
		chains = append(chains, map[string]any{"order": float64(i), "unlocked": i <= chain})
	}
	return snapshot.Blob{
		"role":      map[string]any{"roleId": float64(roleID), "roleName": name},
		"level":     float64(90),
		"chainList": chains,
	}
}

func storedRoleIDs(t *testing.T, s *snapshot.Store, uid string) []string {
	t.Helper()
	rows, err := s.ListByUID(t.Context(), uid)
	require.NoError(t, err)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.RoleID)
	}
	return out
}
