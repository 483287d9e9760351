package ranking_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roleboard/feature/ranking"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, []string) {
	engine, db := newEngine(t)
	uids := population(t, db, "1205", 25)
	svc := ranking.NewService(engine, nil, time.Minute, staticGroups{"g1": uids[:3]}, zap.NewNop(), nil)

	app := fiber.New()
	require.NoError(t, ranking.NewFeature(svc, zap.NewNop()).Load(app))
	return app, uids
}

func TestHandleGlobalRank(t *testing.T) {
	app, uids := setupTestApp(t)

	req := httptest.NewRequest("GET", "/rank/1205/global?page=2&page_size=20&uid="+uids[24], nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body ranking.Board
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(25), body.Total)
	assert.Equal(t, 2, body.Page.Page)
	assert.Len(t, body.Entries, 6)
	assert.True(t, body.AppendedSelf)
	assert.Equal(t, 1, body.Self.Rank)
}

func TestHandleSelfRank(t *testing.T) {
	app, uids := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/rank/1205/self/"+uids[0]+"?type=damage", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body["rank"])

	resp, err = app.Test(httptest.NewRequest("GET", "/rank/1102/self/"+uids[0], nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleGroupRank(t *testing.T) {
	app, uids := setupTestApp(t)

	req := httptest.NewRequest("POST", "/rank/1205/group", strings.NewReader(`{"group_id":"g1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var entries []ranking.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Equal(t, []string{uids[2], uids[1], uids[0]}, entryUIDs(entries))

	req = httptest.NewRequest("POST", "/rank/1205/group", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleTotalRank(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/rank/total", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var board ranking.TotalBoard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	// Every population score is below the floor.
	assert.Equal(t, int64(0), board.Total)
	assert.Empty(t, board.Entries)

	req := httptest.NewRequest("POST", "/rank/total/group", strings.NewReader(`{"uids":["100000000"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
