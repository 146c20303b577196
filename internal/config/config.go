package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings storage backends.
const (
	SettingsBackendDatabase = "database"
	SettingsBackendRedis    = "redis"
)

// Config holds runtime configuration values for the roster service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseDriver     string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	SettingsBackend    string
	ChannelBase        string
	SeedDefaultRoster  bool
	SeedToken          string
	GeminiAPIKey       string
	GeminiBaseURL      string
	AssistantModel     string
	AssistantMaxTokens int
	AssistantTimeout   time.Duration
	AssistantRetries   int
	AssistantBackoff   time.Duration
	AssistantRateLimit int
	SessionRateLimit   int
	SessionTTL         time.Duration
	MaxSessions        int
	StreamKeepAlive    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SISWA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Siswa Roster API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "siswa.db")
	v.SetDefault("settings.backend", SettingsBackendDatabase)
	v.SetDefault("channel.base", "siswa")
	v.SetDefault("seed.default_roster", true)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("assistant.model", "gemini-2.5-flash")
	v.SetDefault("assistant.max_tokens", 0)
	v.SetDefault("assistant.timeout", "30s")
	v.SetDefault("assistant.retries", 1)
	v.SetDefault("assistant.backoff", "500ms")
	v.SetDefault("assistant.rate_limit", 20)
	v.SetDefault("assistant.session_rate_limit", 10)
	v.SetDefault("assistant.session_ttl", "30m")
	v.SetDefault("assistant.max_sessions", 1000)
	v.SetDefault("stream.keep_alive", "30s")

	timeout, err := parseDuration(v, "assistant.timeout", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	backoff, err := parseDuration(v, "assistant.backoff", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	keepAlive, err := parseDuration(v, "stream.keep_alive", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := parseDuration(v, "assistant.session_ttl", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseDriver:     strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		SettingsBackend:    strings.ToLower(v.GetString("settings.backend")),
		ChannelBase:        v.GetString("channel.base"),
		SeedDefaultRoster:  v.GetBool("seed.default_roster"),
		SeedToken:          v.GetString("seed.token"),
		GeminiAPIKey:       strings.TrimSpace(v.GetString("gemini.api_key")),
		GeminiBaseURL:      v.GetString("gemini.base_url"),
		AssistantModel:     v.GetString("assistant.model"),
		AssistantMaxTokens: v.GetInt("assistant.max_tokens"),
		AssistantTimeout:   timeout,
		AssistantRetries:   v.GetInt("assistant.retries"),
		AssistantBackoff:   backoff,
		AssistantRateLimit: v.GetInt("assistant.rate_limit"),
		SessionRateLimit:   v.GetInt("assistant.session_rate_limit"),
		SessionTTL:         sessionTTL,
		MaxSessions:        v.GetInt("assistant.max_sessions"),
		StreamKeepAlive:    keepAlive,
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.SettingsBackend {
	case SettingsBackendDatabase:
	case SettingsBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis settings backend requires SISWA_REDIS_URL")
		}
	default:
		return Config{}, fmt.Errorf("unsupported settings backend %q", cfg.SettingsBackend)
	}

	if cfg.AssistantRetries < 0 {
		cfg.AssistantRetries = 0
	}

	if cfg.AssistantRateLimit <= 0 {
		cfg.AssistantRateLimit = 20
	}

	if cfg.SessionRateLimit <= 0 {
		cfg.SessionRateLimit = 10
	}

	if cfg.MaxSessions < 0 {
		cfg.MaxSessions = 0
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}
