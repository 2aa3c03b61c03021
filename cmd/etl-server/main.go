package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/adsync/api/routes"
	"github.com/angelmondragon/adsync/internal/etl"
	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/config"
	"github.com/angelmondragon/adsync/pkg/db"
	"github.com/angelmondragon/adsync/pkg/env"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
	"github.com/angelmondragon/adsync/pkg/metrics"
	"github.com/angelmondragon/adsync/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "etl-server"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "etl-server",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	pipeline := etl.New(etl.Options{
		Fetcher:  metaClient,
		Store:    warehouse.NewStore(dbClient, logg, cfg.ETL.Timezone),
		Logger:   logg,
		Metrics:  metrics.NewStepMetrics(registry),
		Location: loc,
	})
	service := etl.NewService(pipeline, cfg.Worker.Interval, logg)

	addr := ":" + env.Get("PORT", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting etl server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, service, registry),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "etl server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "etl server shutting down gracefully")
}
