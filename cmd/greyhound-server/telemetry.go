package main

import (
	"context"
	"log/slog"

	"greyhound-backend/lib/restyutil"
	scraper "greyhound-backend/lib/scrapers/greyhound"
	"greyhound-backend/lib/serviceutil"
	"greyhound-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "greyhound-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	scraper.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/greyhound"),
	)
}
