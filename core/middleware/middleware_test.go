package middleware_test

import (
	"net/http/httptest"
	"testing"

	"roleboard/core/middleware/auth"
	"roleboard/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Use(auth.New(auth.Config{ApiKey: apiKey, Skip: []string{"/metrics"}}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("ray_id").(string))
	})
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestRayID(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(rayid.HeaderName))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(rayid.HeaderName, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(rayid.HeaderName))
}

func TestAuth(t *testing.T) {
	app := newApp("secret")

	tests := []struct {
		name   string
		path   string
		key    string
		status int
	}{
		{"Missing Key", "/ping", "", 401},
		{"Wrong Key", "/ping", "nope", 401},
		{"Valid Key", "/ping", "secret", 200},
		{"Skipped Path", "/metrics", "", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set(auth.HeaderName, tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
