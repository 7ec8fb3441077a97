package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Mode   string `mapstructure:"mode"`
	APIKey string `mapstructure:"api_key"`
}

// SheetsConfig points the service at its backing spreadsheet.
type SheetsConfig struct {
	SpreadsheetID string        `mapstructure:"spreadsheet_id"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	ArticlesRange string        `mapstructure:"articles_range"`
	ScheduleRange string        `mapstructure:"schedule_range"`
	StoriesRange  string        `mapstructure:"stories_range"`
	UsersRange    string        `mapstructure:"users_range"`
	CSVExportURL  string        `mapstructure:"csv_export_url"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// DemoAccounts maps email to password. Checked after the Users
	// sheet so a real row with the same email wins.
	DemoAccounts map[string]string `mapstructure:"demo_accounts"`
}

type AssistantConfig struct {
	Provider string       `mapstructure:"provider"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Claude   ClaudeConfig `mapstructure:"claude"`
}

type OpenAIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	Model         string `mapstructure:"model"`
	FallbackModel string `mapstructure:"fallback_model"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
	// Keep bounds how many snapshots are retained; the oldest are
	// pruned after each write. 0 keeps everything.
	Keep int `mapstructure:"keep"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// AlertsConfig controls the ops webhook fired on repeated refresh failures.
type AlertsConfig struct {
	Enabled          bool              `mapstructure:"enabled"`
	WebhookURL       string            `mapstructure:"webhook_url"`
	Headers          map[string]string `mapstructure:"headers"`
	FailureThreshold int               `mapstructure:"failure_threshold"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Sheets: SheetsConfig{
			BaseURL:       "https://sheets.googleapis.com/v4/spreadsheets",
			ArticlesRange: "Articles",
			ScheduleRange: "Schedule",
			StoriesRange:  "Stories",
			UsersRange:    "Users",
			PollInterval:  30 * time.Second,
			Timeout:       10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			DemoAccounts: map[string]string{
				"demo@covergrid.com":  "demo123",
				"admin@covergrid.com": "admin123",
			},
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "data/snapshots",
			Keep:    1000,
		},
		Alerts: AlertsConfig{
			Enabled:          false,
			FailureThreshold: 3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Sheets.SpreadsheetID == "" && c.Sheets.CSVExportURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("sheets.spreadsheet_id or sheets.csv_export_url required"))
	}
	if c.Sheets.PollInterval < time.Second {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("poll_interval must be at least 1s, got %s", c.Sheets.PollInterval))
	}

	if c.Auth.JWTSecret == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("auth.jwt_secret required"))
	}

	// Assistant validation - if provider set, check config exists
	if c.Assistant.Provider != "" {
		switch c.Assistant.Provider {
		case "openai":
			if c.Assistant.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "claude":
			if c.Assistant.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown assistant provider: %s", c.Assistant.Provider))
		}
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.path required for localfs archive"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.s3.bucket required for s3 archive"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
		if c.Archive.Keep < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive.keep cannot be negative, got %d", c.Archive.Keep))
		}
	}

	if c.Alerts.Enabled && c.Alerts.WebhookURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("alerts.webhook_url required when alerts enabled"))
	}

	return nil
}
