package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stereovibe/sunshine-forecast/internal/adapter/httpapi"
	kafkaadapter "github.com/stereovibe/sunshine-forecast/internal/adapter/kafka"
	"github.com/stereovibe/sunshine-forecast/internal/adapter/openweather"
	"github.com/stereovibe/sunshine-forecast/internal/adapter/store"
	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/forecast"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
	"github.com/stereovibe/sunshine-forecast/internal/refresh"
	"github.com/stereovibe/sunshine-forecast/internal/units"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		logger.Error("failed to open forecast store", "error", err)
		os.Exit(1)
	}
	st := store.New(db, logger)
	if err := st.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to prepare forecast schema", "error", err)
		os.Exit(1)
	}

	system, err := units.ParseSystem(cfg.DisplayUnits)
	if err != nil {
		logger.Error("invalid display units", "error", err)
		os.Exit(1)
	}
	formatter := units.NewFormatter(system)
	conditions := forecast.ConditionTable{}

	client := openweather.NewClient(cfg, metrics, logger)
	fetcher := openweather.NewRateLimited(client, cfg.OWMRateLimit, cfg.OWMRateBurst)

	// The display path formats rows for presentation; the storage path
	// keeps raw numbers and records resolved coordinates in the store.
	displayDecoder := forecast.NewDecoder(conditions, formatter, nil, logger)
	storageDecoder := forecast.NewDecoder(conditions, formatter, st, logger)

	// Initialize sync announcements (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher refresh.SyncPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka sync announcements enabled", "topic", cfg.KafkaSyncTopic)
	} else {
		logger.Info("kafka sync announcements disabled")
	}

	view := httpapi.NewViewState()
	controller := refresh.New(client, fetcher, displayDecoder, view, logger, metrics)
	syncer := refresh.NewSyncer(client, fetcher, storageDecoder, st, publisher, logger, metrics)

	srv := httpapi.NewServer(cfg, view, controller, syncer, st, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh controller.
	go func() {
		if err := controller.Run(ctx); err != nil {
			logger.Error("refresh controller error", "error", err)
		}
	}()

	// Load the default location so the view has content at startup.
	controller.RequestRefresh(cfg.DefaultLocation)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("forecast store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
