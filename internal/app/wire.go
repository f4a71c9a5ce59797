package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/avelory/steamflipper/internal/blob/s3"
	"github.com/avelory/steamflipper/internal/cache/redis"
	"github.com/avelory/steamflipper/internal/config"
	"github.com/avelory/steamflipper/internal/domain"
	"github.com/avelory/steamflipper/internal/notify"
	"github.com/avelory/steamflipper/internal/platform/steam"
	"github.com/avelory/steamflipper/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	Opportunities domain.OpportunityStore
	Watchlist     domain.WatchlistStore
	Cooldowns     domain.CooldownStore

	// Market client (scan and full modes only)
	Steam *steam.Client

	// Cold-copy exporter (only when an S3 bucket is configured)
	Exporter *s3blob.Exporter

	// Notifications; nil when no channel is configured
	Notifier *notify.Notifier
}

// needsSteam returns true for modes that poll the market.
func needsSteam(mode string) bool {
	switch mode {
	case "scan", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (every mode persists or reads the evaluation history) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	oppStore := postgres.NewOpportunityStore(pool)
	deps.Opportunities = oppStore
	deps.Watchlist = postgres.NewWatchlistStore(pool)
	deps.Cooldowns = postgres.NewCooldownStore(pool)

	// --- Redis (optional cooldown backend) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		// TTL keys expire on their own, so stale cooldown rows never
		// accumulate the way they do in the Postgres table.
		deps.Cooldowns = redis.NewCooldownCache(redisClient, cfg.Notify.Cooldown.Duration)
	}

	// --- Market client ---
	if needsSteam(mode) {
		client := steam.NewClient(steam.ClientConfig{
			BaseURL:     cfg.Steam.BaseURL,
			Currency:    cfg.Steam.Currency,
			MaxInFlight: int64(cfg.Steam.MaxInFlight),
			Timeout:     cfg.Steam.RequestTimeout.Duration,
		}, logger)
		closers = append(closers, client.Close)
		deps.Steam = client
	}

	// --- S3 cold-copy export (only when a bucket is configured) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Exporter = s3blob.NewExporter(
			s3blob.NewWriter(s3Client),
			oppStore,
			cfg.S3.ExportInterval.Duration,
			logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, logger)
	}

	return deps, cleanup, nil
}
