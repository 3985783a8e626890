package main

import (
	"context"
	"log/slog"
	"time"

	"pricepulse-backend/internal/components/serviceutil"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/config"
)

// InitTelemetry sets up the otel providers. When verbose, it also returns a dump that keeps every
// scraped page under .dev/resty.
func InitTelemetry(ctx context.Context, verbose bool, settings config.Settings) (telemetry.Telemetry, telemetry.HttpDump) {
	var dump telemetry.HttpDump
	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
		fsDump, err := telemetry.NewFilesystemDump(".dev/resty")
		if err != nil {
			serviceutil.Fatal("create http dump", err)
		}
		dump = fsDump
	}

	tel, err := telemetry.Setup(ctx, "pricepulse", settings.Telemetry)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	err = telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	if err != nil {
		serviceutil.Fatal("instrument perf stats", err)
	}
	return tel, dump
}
