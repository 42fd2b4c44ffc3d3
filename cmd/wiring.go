package cmd

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/archive"
	archivegcs "github.com/scoreline/scoreline/internal/archive/gcs"
	archivelocal "github.com/scoreline/scoreline/internal/archive/local"
	archivememory "github.com/scoreline/scoreline/internal/archive/memory"
	"github.com/scoreline/scoreline/internal/config"
	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/events/gcppubsub"
	"github.com/scoreline/scoreline/internal/events/redisstream"
	"github.com/scoreline/scoreline/internal/providers"
	"github.com/scoreline/scoreline/internal/providers/balldontlie"
	"github.com/scoreline/scoreline/internal/providers/espn"
	"github.com/scoreline/scoreline/internal/scoreboard"
	storememory "github.com/scoreline/scoreline/internal/store/memory"
	storepostgres "github.com/scoreline/scoreline/internal/store/postgres"
)

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.Archive, func(), error) {
	switch cfg.Archive.Provider {
	case "none":
		return archive.Nop{}, func() {}, nil
	case "memory":
		return archivememory.New(), func() {}, nil
	case "local":
		arch, err := archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.Dir})
		if err != nil {
			return nil, nil, fmt.Errorf("build local archive: %w", err)
		}
		return arch, func() {}, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		arch, err := archivegcs.New(client, archivegcs.Config{
			Bucket: cfg.Archive.GCSBucket,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build gcs archive: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("storage client close failed", zap.Error(err))
			}
		}
		return arch, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive.provider %q", cfg.Archive.Provider)
	}
}

func buildRegistry(cfg config.Config, arch archive.Archive, logger *zap.Logger) *providers.Registry {
	registry := providers.NewRegistry()

	espnClient := espn.New(espn.Config{
		BaseURL:           cfg.Providers.ESPN.BaseURL,
		UserAgent:         cfg.Providers.ESPN.UserAgent,
		Timeout:           time.Duration(cfg.Providers.ESPN.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Providers.ESPN.RequestsPerSecond,
		Archive:           arch,
		Logger:            logger,
	})
	for _, sport := range cfg.EnabledSports() {
		if sport == scoreboard.SportBasketballPro {
			continue
		}
		registry.Register(sport, espnClient)
	}

	if cfg.Providers.Balldontlie.Enabled {
		registry.Register(scoreboard.SportBasketballPro, balldontlie.New(balldontlie.Config{
			BaseURL:           cfg.Providers.Balldontlie.BaseURL,
			APIKey:            cfg.Providers.Balldontlie.APIKey,
			Timeout:           time.Duration(cfg.Providers.Balldontlie.TimeoutSeconds) * time.Second,
			MaxPages:          cfg.Providers.Balldontlie.MaxPages,
			RequestsPerSecond: cfg.Providers.Balldontlie.RequestsPerSecond,
			Archive:           arch,
			Logger:            logger,
		}))
	}
	return registry
}

func buildStore(ctx context.Context, cfg config.Config) (scoreboard.GameStore, func(), error) {
	switch cfg.Store.Provider {
	case "memory":
		return storememory.New(), func() {}, nil
	case "postgres":
		var lifetime time.Duration
		if cfg.Store.MaxConnLifetime != "" {
			parsed, err := time.ParseDuration(cfg.Store.MaxConnLifetime)
			if err != nil {
				return nil, nil, fmt.Errorf("parse store.max_conn_lifetime: %w", err)
			}
			lifetime = parsed
		}
		store, err := storepostgres.New(ctx, storepostgres.Config{
			DSN:             cfg.Store.DSN,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: lifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store.provider %q", cfg.Store.Provider)
	}
}

func buildPublishers(ctx context.Context, cfg config.Config, hub *events.Hub, logger *zap.Logger) ([]events.Publisher, func(), error) {
	publishers := []events.Publisher{hub}
	switch cfg.Events.Provider {
	case "none":
		return publishers, func() {}, nil
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pubsub client: %w", err)
		}
		publishers = append(publishers, gcppubsub.New(client.Publisher(cfg.Events.TopicName)))
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("pubsub client close failed", zap.Error(err))
			}
		}
		return publishers, cleanup, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Events.RedisAddr})
		publishers = append(publishers, redisstream.New(client, redisstream.Config{
			StreamPrefix: cfg.Events.StreamPrefix,
			MaxLen:       cfg.Events.StreamMaxLen,
		}))
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis client close failed", zap.Error(err))
			}
		}
		return publishers, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown events.provider %q", cfg.Events.Provider)
	}
}
