package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration
type Config struct {
	Service  ServiceConfig  `koanf:"service"`
	Schedule ScheduleConfig `koanf:"schedule"`
	OAuth    OAuthConfig    `koanf:"oauth"`
}

// ServiceConfig holds the HTTP service configuration
type ServiceConfig struct {
	Port               int           `koanf:"port"`
	DatabasePath       string        `koanf:"database_path"`
	NotificationExpiry time.Duration `koanf:"notification_expiry"`
}

// ScheduleConfig holds the weekly calendar parameters
type ScheduleConfig struct {
	// CalendarID selects the single provider calendar events are synced
	// from. Empty means the account's primary calendar.
	CalendarID string `koanf:"calendar_id"`
	// Timezone is the display timezone for the week grid; empty means the
	// process local zone.
	Timezone string `koanf:"timezone"`
}

// OAuthConfig holds the Google OAuth configuration. The credentials are
// opaque strings supplied at initialization, normally from the environment.
type OAuthConfig struct {
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	RedirectURL  string   `koanf:"redirect_url"`
	Scopes       []string `koanf:"scopes"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.port":                8080,
		"service.database_path":       "luchafit.db",
		"service.notification_expiry": "4s",
	}
}

// Load reads configuration from defaults, an optional TOML file and the
// environment. Environment keys use the LUCHAFIT_ prefix with double
// underscores as section separators (LUCHAFIT_SERVICE__PORT). The Google
// credentials can also come from the GOOGLE_OAUTH_* variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: "LUCHAFIT_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "LUCHAFIT_"))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// The Google credential variables win over everything else.
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_ID"); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"); v != "" {
		cfg.OAuth.RedirectURL = v
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Service.Port < 1 || cfg.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", cfg.Service.Port)
	}

	if cfg.Service.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}

	if cfg.OAuth.ClientID == "" {
		return fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID environment variable is required")
	}
	if cfg.OAuth.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_OAUTH_CLIENT_SECRET environment variable is required")
	}
	if cfg.OAuth.RedirectURL == "" {
		return fmt.Errorf("GOOGLE_OAUTH_REDIRECT_URL environment variable is required")
	}

	if cfg.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Schedule.Timezone, err)
		}
	}

	return nil
}

// Location resolves the configured display timezone.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
