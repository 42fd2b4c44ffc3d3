package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoreline/scoreline/internal/cache"
	"github.com/scoreline/scoreline/internal/clock/system"
	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/scoreboard"
	syncer "github.com/scoreline/scoreline/internal/sync"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <sport>",
		Short: "Run one sync pass for a sport and print the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args[0])
		},
	}
}

func runSync(ctx context.Context, sportArg string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sport, err := scoreboard.ParseSport(sportArg)
	if err != nil {
		return err
	}

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

	registry := buildRegistry(cfg, arch, logger)
	adapter, err := registry.ForSport(sport)
	if err != nil {
		return err
	}

	clk := system.New()
	scoreCache := cache.New(cache.Options{Clock: clk, Logger: logger})
	defer scoreCache.Close()

	daysBack, daysAhead, live, idle, fetchTimeout := cfg.SyncConfigFor(sport)
	scheduler := syncer.NewScheduler(
		sport, adapter, scoreCache, store, []events.Publisher{}, clk, logger,
		syncer.Config{
			DaysBack:     daysBack,
			DaysAhead:    daysAhead,
			LiveInterval: live,
			IdleInterval: idle,
			FetchTimeout: fetchTimeout,
		},
	)

	report, err := scheduler.RunTick(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("sport:   %s\n", report.Sport)
	fmt.Printf("dates:   %d\n", report.Dates)
	fmt.Printf("changed: %d\n", report.Changed)
	fmt.Printf("took:    %s\n", report.Duration.Round(time.Millisecond))
	for _, failure := range report.Failures {
		fmt.Printf("failed:  %s: %v\n", failure.Date, failure.Err)
	}
	return nil
}
