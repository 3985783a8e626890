package main

import (
	"context"
	"flag"
	"log/slog"
	"sync"
	"time"

	"pricepulse-backend/internal/components/chrono"
	"pricepulse-backend/internal/components/serviceutil"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/config"
	"pricepulse-backend/internal/httpapi"
	"pricepulse-backend/internal/scrapers"
	"pricepulse-backend/internal/store/backend"
	"pricepulse-backend/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialFetch := flag.Bool("fetch", false, "Fetch the prices of every product immediately on run.")
	configPath := flag.String("config", "config.json5", "The json5 config file, a .local variant next to it overrides it.")
	flag.Parse()

	telemetry.InitSlog(*verbose)
	ctx := serviceutil.SignalContext()

	settings, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("load config", err)
	}

	otelProviders, dump := InitTelemetry(ctx, *verbose, settings)
	tel := telemetry.SlogAPI{}

	db, err := backend.Open(ctx, settings.DatabaseUrl)
	if err != nil {
		serviceutil.Fatal("open store", err)
	}

	registry, err := tracker.NewDefaultRegistry(scrapers.Options{
		Timeout:    settings.Timeout(),
		MinDelay:   settings.MinDelay(),
		MaxDelay:   settings.MaxDelay(),
		UserAgents: settings.UserAgents,
		Dump:       dump,
	}, tel)
	if err != nil {
		serviceutil.Fatal("init registry", err)
	}
	orchestrator, err := tracker.NewOrchestrator(
		registry,
		db,
		chrono.NewStandardTime(),
		tel,
		tracker.OrchestratorOptions{Concurrency: settings.FetchConcurrency},
	)
	if err != nil {
		serviceutil.Fatal("init orchestrator", err)
	}
	scheduler, err := tracker.NewScheduler(
		db,
		orchestrator,
		chrono.NewStandardCron(tel),
		tel,
		tracker.SchedulerOptions{
			Interval:   settings.Interval(),
			RunOnStart: *initialFetch,
		},
	)
	if err != nil {
		serviceutil.Fatal("init scheduler", err)
	}
	err = scheduler.Start()
	if err != nil {
		serviceutil.Fatal("start scheduler", err)
	}
	slog.Info("scheduler started", "interval", settings.Interval().String(), "stores", registry.Keys())

	// shutdown order: scheduler, http server, store, telemetry
	httpCtx, stopHttp := context.WithCancel(context.Background())
	stopScheduler := sync.OnceFunc(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := scheduler.Stop(stopCtx)
		if err != nil {
			slog.Error("stop scheduler", "err", err)
		}
		stopHttp()
	})
	go func() {
		<-ctx.Done()
		stopScheduler()
	}()

	router := httpapi.NewRouter(httpapi.NewHandler(db, orchestrator, registry, tel))
	err = serviceutil.StartHttpServer(httpCtx, settings.HttpAddr, router, shutdownTimeout)
	if err != nil {
		slog.Error("http server", "err", err)
	}
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = db.Close()
	if err != nil {
		slog.Error("close store", "err", err)
	}
	err = otelProviders.Shutdown(shutdownCtx)
	if err != nil {
		slog.Error("shutdown telemetry", "err", err)
	}
	slog.Info("shutdown complete")
}
