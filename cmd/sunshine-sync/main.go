// Command sunshine-sync fetches the forecast for one location, persists
// it to the configured store, and announces the sync on Kafka when
// enabled. It is the one-shot form of the daemon's sync endpoint,
// intended for cron jobs and manual backfills.
//
// Configuration comes from the environment (see internal/config). The
// location falls back to DEFAULT_LOCATION when the flag is omitted.
//
// Usage:
//
//	go run ./cmd/sunshine-sync -location "San Francisco,US" -timeout 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

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
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	location := flag.String("location", "", "location query to sync (defaults to DEFAULT_LOCATION)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall sync deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *location == "" {
		*location = cfg.DefaultLocation
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open forecast store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st := store.New(db, logger)
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare forecast schema: %w", err)
	}

	system, err := units.ParseSystem(cfg.DisplayUnits)
	if err != nil {
		return err
	}

	client := openweather.NewClient(cfg, metrics, logger)
	decoder := forecast.NewDecoder(forecast.ConditionTable{}, units.NewFormatter(system), st, logger)

	var publisher refresh.SyncPublisher
	if cfg.KafkaEnabled {
		kafkaPublisher := kafkaadapter.NewPublisher(cfg, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	syncer := refresh.NewSyncer(client, client, decoder, st, publisher, logger, metrics)

	days, err := syncer.Sync(ctx, *location)
	if err != nil {
		return fmt.Errorf("sync %q: %w", *location, err)
	}

	log.Printf("synced %d days for %s", days, *location)
	return nil
}
