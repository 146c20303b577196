package dto

import (
	"time"

	"github.com/noah-isme/siswa-api/internal/models"
)

// SettingsResponse exposes preferences without revealing the stored API key.
type SettingsResponse struct {
	Theme            models.ThemeMode `json:"theme"`
	PrimaryColor     string           `json:"primary_color"`
	TextColor        string           `json:"text_color"`
	AssistantEnabled bool             `json:"assistant_enabled"`
	Personality      string           `json:"personality"`
	APIKeyConfigured bool             `json:"api_key_configured"`
	TableView        models.TableView `json:"table_view"`
}

// NewSettingsResponse converts typed settings into the API representation.
func NewSettingsResponse(settings models.Settings) SettingsResponse {
	return SettingsResponse{
		Theme:            settings.Theme,
		PrimaryColor:     settings.PrimaryColor,
		TextColor:        settings.TextColor,
		AssistantEnabled: settings.AssistantEnabled,
		Personality:      settings.Personality,
		APIKeyConfigured: settings.APIKey != "",
		TableView:        settings.TableView,
	}
}

// SettingsUpdateRequest patches any subset of preferences.
type SettingsUpdateRequest struct {
	Theme            *string `json:"theme" validate:"omitempty,oneof=dark light"`
	PrimaryColor     *string `json:"primary_color" validate:"omitempty,hexcolor"`
	TextColor        *string `json:"text_color" validate:"omitempty,hexcolor"`
	AssistantEnabled *bool   `json:"assistant_enabled"`
	Personality      *string `json:"personality" validate:"omitempty,max=4000"`
	APIKey           *string `json:"api_key" validate:"omitempty,max=256"`
	TableView        *string `json:"table_view" validate:"omitempty,oneof=responsive table"`
}

// SettingValueRequest sets a single key.
type SettingValueRequest struct {
	Value string `json:"value"`
}

// SettingValueResponse reports one key. The API key value is always masked.
type SettingValueResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingsResetResponse reports the restored defaults. Clients must reload
// because some views cache derived values at startup.
type SettingsResetResponse struct {
	Settings       SettingsResponse `json:"settings"`
	ReloadRequired bool             `json:"reload_required"`
}

// Settings event types.
const (
	SettingsEventUpdated  = "settings.updated"
	SettingsEventReset    = "settings.reset"
	SettingsEventSnapshot = "settings.snapshot"
)

// SettingsEvent is broadcast to every open view after a settings change.
type SettingsEvent struct {
	Type       string           `json:"type"`
	Keys       []string         `json:"keys"`
	Settings   SettingsResponse `json:"settings"`
	OccurredAt time.Time        `json:"occurred_at"`
}
