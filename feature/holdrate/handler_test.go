package holdrate_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"roleboard/feature/holdrate"
	"roleboard/feature/snapshot/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandlers(t *testing.T) {
	db := newTestDB(t)
	account(t, db, "100000001", true, time.Now())
	syncChars(t, db, "100000001", blob(1205, "Changli", 1))

	svc := holdrate.NewService(holdrate.Config{}, holdrate.NewAggregator(db, 30), zap.NewNop(), nil)
	app := fiber.New()
	require.NoError(t, holdrate.NewFeature(svc).Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/holdrate/1205", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/holdrate/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var summary map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Contains(t, summary["summary"], "1 characters updated")

	resp, err = app.Test(httptest.NewRequest("GET", "/holdrate", nil))
	require.NoError(t, err)
	var rows []models.CharacterHoldRate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{"1": 100}, rows[0].ChainDistribution.Data())

	resp, err = app.Test(httptest.NewRequest("GET", "/holdrate/1205", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
