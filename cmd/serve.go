package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/api"
	"github.com/scoreline/scoreline/internal/cache"
	"github.com/scoreline/scoreline/internal/clock/system"
	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/merge"
	syncer "github.com/scoreline/scoreline/internal/sync"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync loops and the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := system.New()

	arch, closeArchive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := events.NewHub(logger)
	defer hub.Close()

	publishers, closePublishers, err := buildPublishers(ctx, cfg, hub, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	scoreCache := cache.New(cache.Options{
		LiveTTL:       time.Duration(cfg.Cache.LiveTTLSeconds) * time.Second,
		StaticTTL:     time.Duration(cfg.Cache.StaticTTLSeconds) * time.Second,
		SweepInterval: time.Duration(cfg.Cache.SweepIntervalSeconds) * time.Second,
		Clock:         clk,
		Logger:        logger,
	})
	defer scoreCache.Close()

	registry := buildRegistry(cfg, arch, logger)
	schedulers := make([]*syncer.Scheduler, 0, len(cfg.EnabledSports()))
	for _, sport := range cfg.EnabledSports() {
		adapter, err := registry.ForSport(sport)
		if err != nil {
			logger.Warn("sport has no adapter, skipping", zap.String("sport", string(sport)))
			continue
		}
		daysBack, daysAhead, live, idle, fetchTimeout := cfg.SyncConfigFor(sport)
		schedulers = append(schedulers, syncer.NewScheduler(
			sport, adapter, scoreCache, store, publishers, clk, logger,
			syncer.Config{
				DaysBack:     daysBack,
				DaysAhead:    daysAhead,
				LiveInterval: live,
				IdleInterval: idle,
				FetchTimeout: fetchTimeout,
			},
		))
	}
	if len(schedulers) == 0 {
		return errors.New("no sports could be scheduled; check providers configuration")
	}

	orch := syncer.NewOrchestrator(schedulers, logger)
	orchDone := make(chan struct{})
	go func() {
		defer close(orchDone)
		orch.Run(ctx)
	}()

	views := merge.NewManager(store, hub, merge.ManagerOptions{
		Logger: logger,
		Clock:  clk,
	})
	defer views.Close()

	server := api.NewServer(store, orch, hub, views, clk, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-orchDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	<-orchDone
	return nil
}
