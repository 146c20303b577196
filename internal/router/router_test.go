package router_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siswa-api/internal/config"
	"github.com/noah-isme/siswa-api/internal/handler"
	"github.com/noah-isme/siswa-api/internal/router"
)

type healthPayload struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName:         "Siswa Roster API",
		AppEnv:          "test",
		SettingsBackend: config.SettingsBackendDatabase,
	}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, cfg.AppName, resp.Header.Get("X-Application"))

	var payload healthPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, config.SettingsBackendDatabase, payload.Data.Settings)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestMetricsEndpoint(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "test"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "siswa_settings_subscribers")

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/metrics", nil), -1)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `promhttp_metric_handler_requests_total{code="200"}`)
}
