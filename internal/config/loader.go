package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FLIPPER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FLIPPER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Steam ──
	setStr(&cfg.Steam.BaseURL, "FLIPPER_STEAM_BASE_URL")
	setInt(&cfg.Steam.Currency, "FLIPPER_STEAM_CURRENCY")
	setInt(&cfg.Steam.MaxInFlight, "FLIPPER_STEAM_MAX_IN_FLIGHT")
	setDuration(&cfg.Steam.RequestTimeout, "FLIPPER_STEAM_REQUEST_TIMEOUT")

	// ── Policy ──
	setFloat64(&cfg.Policy.FeeRate, "FLIPPER_POLICY_FEE_RATE")
	setInt(&cfg.Policy.MinVolume, "FLIPPER_POLICY_MIN_VOLUME")
	setFloat64(&cfg.Policy.MinProfit, "FLIPPER_POLICY_MIN_PROFIT")
	setFloat64(&cfg.Policy.MinROI, "FLIPPER_POLICY_MIN_ROI")
	setFloat64(&cfg.Policy.RiskHighSpread, "FLIPPER_POLICY_RISK_HIGH_SPREAD")
	setFloat64(&cfg.Policy.RiskMediumSpread, "FLIPPER_POLICY_RISK_MEDIUM_SPREAD")
	setInt(&cfg.Policy.RiskHighMinVolume, "FLIPPER_POLICY_RISK_HIGH_MIN_VOLUME")
	setInt(&cfg.Policy.RiskMediumMinVolume, "FLIPPER_POLICY_RISK_MEDIUM_MIN_VOLUME")

	// ── Scan ──
	setDuration(&cfg.Scan.Interval, "FLIPPER_SCAN_INTERVAL")
	setDuration(&cfg.Scan.ItemDelay, "FLIPPER_SCAN_ITEM_DELAY")

	// ── Database ──
	setStr(&cfg.Database.DSN, "FLIPPER_DATABASE_DSN")
	setStr(&cfg.Database.Host, "FLIPPER_DATABASE_HOST")
	setInt(&cfg.Database.Port, "FLIPPER_DATABASE_PORT")
	setStr(&cfg.Database.Database, "FLIPPER_DATABASE_NAME")
	setStr(&cfg.Database.User, "FLIPPER_DATABASE_USER")
	setStr(&cfg.Database.Password, "FLIPPER_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "FLIPPER_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "FLIPPER_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "FLIPPER_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "FLIPPER_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FLIPPER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLIPPER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLIPPER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FLIPPER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FLIPPER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FLIPPER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FLIPPER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FLIPPER_S3_REGION")
	setStr(&cfg.S3.Bucket, "FLIPPER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FLIPPER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FLIPPER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FLIPPER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FLIPPER_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ExportInterval, "FLIPPER_S3_EXPORT_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "FLIPPER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FLIPPER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "FLIPPER_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FLIPPER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLIPPER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FLIPPER_NOTIFY_DISCORD_WEBHOOK_URL")
	setDuration(&cfg.Notify.Cooldown, "FLIPPER_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.Mode, "FLIPPER_MODE")
	setStr(&cfg.LogLevel, "FLIPPER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
