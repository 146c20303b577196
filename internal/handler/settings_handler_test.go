package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/siswa-api/internal/dto"
	"github.com/noah-isme/siswa-api/internal/handler"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/repository"
	"github.com/noah-isme/siswa-api/internal/service"
)

func newSettingsApp(t *testing.T) (*fiber.App, service.SettingsService) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	svc, err := service.NewSettingsService(context.Background(), repository.NewSettingRepository(db), nil, "", nil,
		validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	require.NoError(t, err)

	app := fiber.New()
	handler.NewSettingsHandler(svc, zerolog.Nop(), time.Second).Register(app.Group("/api/v1/settings"))
	return app, svc
}

func TestSettingsHandlerCurrentContract(t *testing.T) {
	app, _ := newSettingsApp(t)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/settings", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := requireContract(t, resp, "settings.schema.json")
	var payload struct {
		Data dto.SettingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, models.ThemeDark, payload.Data.Theme)
	require.Equal(t, models.DefaultPrimaryColor, payload.Data.PrimaryColor)
	require.False(t, payload.Data.AssistantEnabled)
}

func TestSettingsHandlerPatchNeverEchoesAPIKey(t *testing.T) {
	app, svc := newSettingsApp(t)

	resp := doRequest(t, app, http.MethodPatch, "/api/v1/settings", map[string]interface{}{
		"theme":             "light",
		"assistant_enabled": true,
		"api_key":           "very-secret",
	}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := requireContract(t, resp, "settings.schema.json")
	require.NotContains(t, string(body), "very-secret")
	require.Equal(t, "very-secret", svc.Current(context.Background()).APIKey)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/settings/"+models.SettingKeyAPIKey, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var single struct {
		Data dto.SettingValueResponse `json:"data"`
	}
	decodeResponse(t, resp, &single)
	require.NotEqual(t, "very-secret", single.Data.Value)
	require.NotEmpty(t, single.Data.Value)
}

func TestSettingsHandlerSingleKey(t *testing.T) {
	app, svc := newSettingsApp(t)

	resp := doRequest(t, app, http.MethodPut, "/api/v1/settings/"+models.SettingKeyTableView, dto.SettingValueRequest{Value: "table"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	require.Equal(t, models.TableViewTable, svc.Current(context.Background()).TableView)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/settings/"+models.SettingKeyTableView, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var single struct {
		Data dto.SettingValueResponse `json:"data"`
	}
	decodeResponse(t, resp, &single)
	require.Equal(t, "table", single.Data.Value)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/settings/fontSize", nil, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doRequest(t, app, http.MethodPut, "/api/v1/settings/"+models.SettingKeyTheme, dto.SettingValueRequest{Value: "sepia"}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSettingsHandlerReset(t *testing.T) {
	app, svc := newSettingsApp(t)

	resp := doRequest(t, app, http.MethodPatch, "/api/v1/settings", map[string]string{"theme": "light"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/api/v1/settings/reset", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var payload struct {
		Data dto.SettingsResetResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Data.ReloadRequired)
	require.Equal(t, models.ThemeDark, payload.Data.Settings.Theme)
	require.Equal(t, models.DefaultSettings(), svc.Current(context.Background()))
}
