// Package config defines the top-level configuration for the flip scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FLIPPER_* environment
// variables.
type Config struct {
	Steam    SteamConfig    `toml:"steam"`
	Policy   PolicyConfig   `toml:"policy"`
	Scan     ScanConfig     `toml:"scan"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// SteamConfig holds market endpoint parameters.
type SteamConfig struct {
	BaseURL        string   `toml:"base_url"`
	Currency       int      `toml:"currency"`
	MaxInFlight    int      `toml:"max_in_flight"`
	RequestTimeout duration `toml:"request_timeout"`
}

// PolicyConfig holds the evaluation thresholds.
type PolicyConfig struct {
	FeeRate             float64 `toml:"fee_rate"`
	MinVolume           int     `toml:"min_volume"`
	MinProfit           float64 `toml:"min_profit"`
	MinROI              float64 `toml:"min_roi"`
	RiskHighSpread      float64 `toml:"risk_high_spread"`
	RiskMediumSpread    float64 `toml:"risk_medium_spread"`
	RiskHighMinVolume   int     `toml:"risk_high_min_volume"`
	RiskMediumMinVolume int     `toml:"risk_medium_min_volume"`
}

// ToPolicy converts the config section into the domain policy.
func (p PolicyConfig) ToPolicy() domain.Policy {
	return domain.Policy{
		FeeRate:             p.FeeRate,
		MinVolume:           p.MinVolume,
		MinProfit:           p.MinProfit,
		MinROI:              p.MinROI,
		RiskHighSpread:      p.RiskHighSpread,
		RiskMediumSpread:    p.RiskMediumSpread,
		RiskHighMinVolume:   p.RiskHighMinVolume,
		RiskMediumMinVolume: p.RiskMediumMinVolume,
	}
}

// ScanConfig holds scan loop pacing.
type ScanConfig struct {
	Interval  duration `toml:"interval"`
	ItemDelay duration `toml:"item_delay"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. When Addr is set, the
// notification cooldown state lives in Redis instead of Postgres.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds object storage parameters for the audit-log export. The
// export is enabled by setting a bucket.
type S3Config struct {
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	ExportInterval duration `toml:"export_interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials and the cooldown.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Cooldown          duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Steam: SteamConfig{
			BaseURL:        "https://steamcommunity.com/market/priceoverview/",
			Currency:       5, // RUB
			MaxInFlight:    3,
			RequestTimeout: duration{10 * time.Second},
		},
		Policy: PolicyConfig{
			FeeRate:             0.15,
			MinVolume:           20,
			MinProfit:           5.0,
			MinROI:              0.03,
			RiskHighSpread:      0.40,
			RiskMediumSpread:    0.25,
			RiskHighMinVolume:   50,
			RiskMediumMinVolume: 150,
		},
		Scan: ScanConfig{
			Interval:  duration{300 * time.Second},
			ItemDelay: duration{1500 * time.Millisecond},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "steamflipper",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		S3: S3Config{
			Region:         "us-east-1",
			ExportInterval: duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Cooldown: duration{30 * time.Minute},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies and returns an error
// describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Mode) {
	case "scan", "serve", "full":
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, serve, full)", c.Mode))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Policy.FeeRate < 0 || c.Policy.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("policy.fee_rate %v out of range [0, 1)", c.Policy.FeeRate))
	}
	if c.Policy.RiskHighSpread < c.Policy.RiskMediumSpread {
		errs = append(errs, "policy.risk_high_spread must be >= policy.risk_medium_spread")
	}
	if c.Policy.RiskHighMinVolume > c.Policy.RiskMediumMinVolume {
		errs = append(errs, "policy.risk_high_min_volume must be <= policy.risk_medium_min_volume")
	}

	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan.interval must be positive")
	}
	if c.Steam.MaxInFlight <= 0 {
		errs = append(errs, "steam.max_in_flight must be positive")
	}
	if c.Notify.Cooldown.Duration <= 0 {
		errs = append(errs, "notify.cooldown must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	if c.S3.Bucket != "" && c.S3.ExportInterval.Duration <= 0 {
		errs = append(errs, "s3.export_interval must be positive when s3.bucket is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
