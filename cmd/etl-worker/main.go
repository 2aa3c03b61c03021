package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/adsync/internal/etl"
	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/config"
	"github.com/angelmondragon/adsync/pkg/db"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
	"github.com/angelmondragon/adsync/pkg/metrics"
	"github.com/angelmondragon/adsync/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "etl-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "etl-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	metaClient, err := meta.NewClient(context.Background(), cfg.Meta, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create graph api client", err)
		os.Exit(1)
	}

	loc, err := cfg.ETL.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load etl timezone", err)
		os.Exit(1)
	}

	pipeline := etl.New(etl.Options{
		Fetcher:  metaClient,
		Store:    warehouse.NewStore(dbClient, logg, cfg.ETL.Timezone),
		Logger:   logg,
		Metrics:  metrics.NewStepMetrics(prometheus.DefaultRegisterer),
		Location: loc,
	})
	service := etl.NewService(pipeline, cfg.Worker.Interval, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Worker.Interval.String(),
	})
	logg.Info(ctx, "starting etl worker")

	service.Start(ctx)

	logg.Info(ctx, "etl worker shutting down gracefully")
}
