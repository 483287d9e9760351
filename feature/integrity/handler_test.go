package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"roleboard/core/database"
	"roleboard/core/storage/mocks"
	"roleboard/feature/snapshot/models"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, client *mocks.Client) *fiber.App {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))

	deps := Deps{DB: db, Models: models.All(), Bucket: "roleboard", Logger: zap.NewNop()}
	if client != nil {
		deps.Storage = client
	}

	app := fiber.New()
	require.NoError(t, NewFeature(NewService(deps)).Load(app))
	return app
}

func decode(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleIntegrityCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := decode(t, app, "/integrity")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["schema"].(map[string]any)["matched"])
	assert.Equal(t, "disabled", body["storage"].(map[string]any)["status"])
	assert.Equal(t, false, body["cache"].(map[string]any)["enabled"])
}

func TestHandleSchemaCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := decode(t, app, "/integrity/schema")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["matched"])
	assert.Len(t, body["tables"], 4)
}

func TestHandleStorageCheck(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		app := setupTestApp(t, nil)
		status, body := decode(t, app, "/integrity/storage")
		assert.Equal(t, 404, status)
		assert.Equal(t, ErrStorageDisabled.Error(), body["error"])
	})

	t.Run("checked", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "roleboard").Return(false, nil)
		app := setupTestApp(t, client)

		status, body := decode(t, app, "/integrity/storage")
		assert.Equal(t, 200, status)
		assert.Equal(t, "checked", body["status"])
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fixed", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "roleboard").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "roleboard", minio.MakeBucketOptions{}).Return(nil)
		app := setupTestApp(t, client)

		status, body := decode(t, app, "/integrity/storage?fix=true")
		assert.Equal(t, 200, status)
		assert.Equal(t, "fixed", body["status"])
		client.AssertExpectations(t)
	})
}

func TestHandleCacheCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := decode(t, app, "/integrity/cache")
	assert.Equal(t, 200, status)
	assert.Equal(t, false, body["enabled"])
}

func TestLoader(t *testing.T) {
	feature := NewFeature(NewService(Deps{Logger: zap.NewNop()}))
	assert.Equal(t, "integrity", feature.Name())
	assert.False(t, feature.IsEnabled())
}
