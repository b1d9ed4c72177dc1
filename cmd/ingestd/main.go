package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/roadwatch/incident-etl/internal/adapter/http"
	"github.com/roadwatch/incident-etl/internal/config"
	"github.com/roadwatch/incident-etl/internal/feed"
	"github.com/roadwatch/incident-etl/internal/ingest"
	"github.com/roadwatch/incident-etl/internal/observability"
	"github.com/roadwatch/incident-etl/internal/provider/drivetexas"
	"github.com/roadwatch/incident-etl/internal/provider/ohgo"
	"github.com/roadwatch/incident-etl/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DB, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	var jobs []ingest.Job
	var roads httpadapter.RoadIngestor

	if cfg.OHGOAPIKey != "" {
		// Each provider gets its own client so the auth fallback retry can
		// only ever carry that provider's key.
		client := feed.NewClient(cfg.OHGOAPIKey, cfg.FetchTimeout, logger)
		conn := ohgo.New(ohgo.Config{
			BaseURL:       cfg.OHGOBaseURL,
			IncidentsPath: cfg.OHGOIncidentsPath,
			RoadsPath:     cfg.OHGORoadsPath,
			APIKey:        cfg.OHGOAPIKey,
			Region:        cfg.OHGORegion,
			BoundsSW:      cfg.OHGOBoundsSW,
			BoundsNE:      cfg.OHGOBoundsNE,
			Radius:        cfg.OHGORadius,
		}, client, logger)
		jobs = append(jobs, ingest.Job{Provider: conn, Interval: cfg.OHGOInterval})
		roads = ingest.NewRoadSync(conn, st, logger)
	} else {
		logger.Info("OHGO provider disabled, no api key")
	}

	if cfg.DriveTexasAPIKey != "" {
		// DriveTexas authenticates by query parameter, so its client carries
		// no fallback key at all.
		conn := drivetexas.New(drivetexas.Config{
			BaseURL: cfg.DriveTexasBaseURL,
			APIKey:  cfg.DriveTexasAPIKey,
		}, feed.NewClient("", cfg.FetchTimeout, logger), logger)
		jobs = append(jobs, ingest.Job{Provider: conn, Interval: cfg.DriveTexasInterval})
	} else {
		logger.Info("DriveTexas provider disabled, no api key")
	}

	engine := ingest.NewEngine(st, logger, metrics)
	runner := ingest.NewRunner(engine, jobs, logger, metrics, nil)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, roads, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the periodic ingestion runner.
	go func() {
		if err := runner.Run(ctx); err != nil {
			logger.Error("runner error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
