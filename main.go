package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"realestate-insights/api"
	"realestate-insights/catalog"
	"realestate-insights/config"
	"realestate-insights/models"
	"realestate-insights/services"
	"realestate-insights/storage"
	"realestate-insights/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("catalog", cfg.CatalogBaseURL).
		Int("page_size", cfg.PageSize).
		Dur("sync_interval", cfg.SyncInterval).
		Bool("once", cfg.SyncOnce).
		Msg("=== Real-estate insights starting ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Exiting with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	session := catalog.NewSession(cfg.CatalogBaseURL, catalog.Credentials{
		Email:    cfg.CatalogEmail,
		Password: cfg.CatalogPassword,
	}, client, logger)

	fetcher := catalog.NewFetcher(catalog.FetcherConfig{
		BaseURL:     cfg.CatalogBaseURL,
		PageSize:    cfg.PageSize,
		RateLimitMs: cfg.RateLimitMs,
		Client:      client,
	}, session, services.NewNormalizer(logger), logger)

	insights := services.NewInsightService(logger)
	synchronizer := services.NewSynchronizer(fetcher, logger)
	dashboard := services.NewDashboard(insights, logger)
	synchronizer.OnCommit(dashboard.SetProjects)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return err
	}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.MaxRetries, logger)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer pgWriter.Close()
		synchronizer.OnCommit(mirrorTo(pgWriter, logger))
	}

	if cfg.SyncOnce {
		return syncOnce(ctx, synchronizer, dashboard, insights, csvWriter, logger)
	}

	router := api.NewRouter(api.NewHandler(dashboard, synchronizer, logger))

	supervisor := suture.New("realestate-insights", suture.Spec{
		EventHook: supervisorHook(logger),
		Timeout:   15 * time.Second,
	})
	supervisor.Add(services.NewScheduler(synchronizer, cfg.SyncInterval, logger))
	supervisor.Add(api.NewServer(cfg.ListenAddr, router, logger))

	return supervisor.Serve(ctx)
}

// syncOnce runs a single synchronization, prints the report and writes the
// top-projects export.
func syncOnce(ctx context.Context, s *services.Synchronizer, d *services.Dashboard,
	insights *services.InsightService, csvWriter *storage.CSVWriter, logger *utils.Logger) error {
	_, err := s.Synchronize(ctx, func(p models.Progress) {
		logger.Info().Int("page", p.Page).Int("loaded", p.Loaded).Int("total", p.Total).Msg("Sync progress")
	})
	if err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}

	report := d.View().Report
	insights.Print(os.Stdout, report)

	if err := csvWriter.Write(report.ExportProjects); err != nil {
		logger.Error().Err(err).Msg("CSV export failed")
	} else {
		logger.Info().Str("path", csvWriter.Path()).Msg("Top projects exported")
	}
	return nil
}

func mirrorTo(w storage.ProjectWriter, logger *utils.Logger) func([]*models.Project) {
	return func(projects []*models.Project) {
		if err := w.Write(projects); err != nil {
			logger.Error().Err(err).Msg("PostgreSQL mirror write failed")
			return
		}
		logger.Info().Int("projects", len(projects)).Msg("Snapshot mirrored to PostgreSQL (table: projects)")
	}
}

func supervisorHook(logger *utils.Logger) suture.EventHook {
	log := logger.With("supervisor")
	return func(e suture.Event) {
		switch e.Type() {
		case suture.EventTypeServicePanic:
			log.Error().Fields(e.Map()).Msg("[supervisor] " + e.String())
		case suture.EventTypeServiceTerminate, suture.EventTypeBackoff, suture.EventTypeStopTimeout:
			log.Warn().Fields(e.Map()).Msg("[supervisor] " + e.String())
		default:
			log.Info().Fields(e.Map()).Msg("[supervisor] " + e.String())
		}
	}
}
