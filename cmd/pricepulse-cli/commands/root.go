package commands

import (
	"context"
	"fmt"
	"os"

	"pricepulse-backend/internal/components/chrono"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/config"
	"pricepulse-backend/internal/scrapers"
	"pricepulse-backend/internal/store"
	"pricepulse-backend/internal/store/backend"
	"pricepulse-backend/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// app holds what the commands share, it is built before any command runs.
var app struct {
	store        store.Store
	registry     tracker.Registry
	orchestrator *tracker.Orchestrator
	scheduler    *tracker.Scheduler
}

var rootCmd = &cobra.Command{
	Use:           "pricepulse-cli",
	Short:         "pricepulse-cli registers products and fetches their prices from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		return setupApp(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.store == nil {
			return nil
		}
		return app.store.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The json5 config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func setupApp(ctx context.Context) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tel := telemetry.SlogAPI{}

	db, err := backend.Open(ctx, settings.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	registry, err := tracker.NewDefaultRegistry(scrapers.Options{
		Timeout:    settings.Timeout(),
		MinDelay:   settings.MinDelay(),
		MaxDelay:   settings.MaxDelay(),
		UserAgents: settings.UserAgents,
	}, tel)
	if err != nil {
		db.Close()
		return err
	}
	orchestrator, err := tracker.NewOrchestrator(
		registry,
		db,
		chrono.NewStandardTime(),
		tel,
		tracker.OrchestratorOptions{Concurrency: settings.FetchConcurrency},
	)
	if err != nil {
		db.Close()
		return err
	}
	// only Tick is used, the cron is never started
	scheduler, err := tracker.NewScheduler(
		db,
		orchestrator,
		chrono.NewStandardCron(tel),
		tel,
		tracker.SchedulerOptions{Interval: settings.Interval()},
	)
	if err != nil {
		db.Close()
		return err
	}

	app.store = db
	app.registry = registry
	app.orchestrator = orchestrator
	app.scheduler = scheduler
	return nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
