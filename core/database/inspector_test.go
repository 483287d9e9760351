package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_rows (id INTEGER PRIMARY KEY, uid TEXT, score REAL)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_rows")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "integer", colMap["id"])
	assert.Equal(t, "text", colMap["uid"])
	assert.Equal(t, "real", colMap["score"])

	// PRAGMA table_info returns an empty result for a non-existent table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE test_rows (id INTEGER PRIMARY KEY, uid TEXT)").Error)

	missing, err := MissingColumns(db, "test_rows", []string{"id", "UID", "damage"})
	require.NoError(t, err)
	assert.Equal(t, []string{"damage"}, missing)
}
