package models

import "time"

// Setting is a persisted key/value preference row.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:setting_key;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Persisted setting keys. Names match the keys used by the browser client.
const (
	SettingKeyTheme            = "theme"
	SettingKeyPrimaryColor     = "primaryColor"
	SettingKeyTextColor        = "textColor"
	SettingKeyAssistantEnabled = "aiAssistantEnabled"
	SettingKeyPersonality      = "aiPersonality"
	SettingKeyAPIKey           = "geminiApiKey"
	SettingKeyTableView        = "tableView"
)

// SettingKeys enumerates every supported setting key.
var SettingKeys = []string{
	SettingKeyTheme,
	SettingKeyPrimaryColor,
	SettingKeyTextColor,
	SettingKeyAssistantEnabled,
	SettingKeyPersonality,
	SettingKeyAPIKey,
	SettingKeyTableView,
}

// ThemeMode selects the UI colour scheme.
type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

// TableView selects how the roster list is laid out.
type TableView string

const (
	TableViewResponsive TableView = "responsive"
	TableViewTable      TableView = "table"
)

// Setting defaults.
const (
	DefaultPrimaryColor   = "#5a4fcf"
	DefaultDarkTextColor  = "#ffffff"
	DefaultLightTextColor = "#1f2937"
	DefaultPersonality    = "Anda adalah 'Asisten Cerdas 7C', asisten AI untuk aplikasi manajemen data siswa. Tugas Anda adalah menjawab pertanyaan HANYA berdasarkan data siswa yang disediakan. Jika jawaban tidak ada di data, katakan Anda tidak memiliki informasi tersebut. Selalu jawab dalam Bahasa Indonesia dengan ramah dan membantu."
)

// Settings is the typed view over the persisted preference rows.
type Settings struct {
	Theme            ThemeMode
	PrimaryColor     string
	TextColor        string
	AssistantEnabled bool
	Personality      string
	APIKey           string
	TableView        TableView
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		Theme:            ThemeDark,
		PrimaryColor:     DefaultPrimaryColor,
		TextColor:        DefaultDarkTextColor,
		AssistantEnabled: false,
		Personality:      DefaultPersonality,
		APIKey:           "",
		TableView:        TableViewResponsive,
	}
}

// DefaultTextColor returns the text colour that suits the given theme.
func DefaultTextColor(theme ThemeMode) string {
	if theme == ThemeLight {
		return DefaultLightTextColor
	}
	return DefaultDarkTextColor
}

// SettingsFromValues builds settings from raw key/value rows, applying defaults for missing or unknown values.
func SettingsFromValues(values map[string]string) Settings {
	settings := DefaultSettings()

	if theme := ThemeMode(values[SettingKeyTheme]); theme == ThemeDark || theme == ThemeLight {
		settings.Theme = theme
	}
	if color := values[SettingKeyPrimaryColor]; color != "" {
		settings.PrimaryColor = color
	}
	settings.TextColor = DefaultTextColor(settings.Theme)
	if color := values[SettingKeyTextColor]; color != "" {
		settings.TextColor = color
	}
	settings.AssistantEnabled = values[SettingKeyAssistantEnabled] == "true"
	if personality := values[SettingKeyPersonality]; personality != "" {
		settings.Personality = personality
	}
	settings.APIKey = values[SettingKeyAPIKey]
	if view := TableView(values[SettingKeyTableView]); view == TableViewResponsive || view == TableViewTable {
		settings.TableView = view
	}

	return settings
}

// Values flattens settings back into persisted key/value rows. An empty API key is omitted.
func (s Settings) Values() map[string]string {
	values := map[string]string{
		SettingKeyTheme:            string(s.Theme),
		SettingKeyPrimaryColor:     s.PrimaryColor,
		SettingKeyTextColor:        s.TextColor,
		SettingKeyAssistantEnabled: boolString(s.AssistantEnabled),
		SettingKeyPersonality:      s.Personality,
		SettingKeyTableView:        string(s.TableView),
	}
	if s.APIKey != "" {
		values[SettingKeyAPIKey] = s.APIKey
	}
	return values
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
