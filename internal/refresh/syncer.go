package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
)

// StorageDecoder converts a raw payload into storage rows.
type StorageDecoder interface {
	StorageRows(ctx context.Context, raw []byte) ([]forecast.StorageRow, error)
}

// ForecastStore persists the decoded rows for a location, replacing
// whatever was stored before.
type ForecastStore interface {
	SaveForecasts(ctx context.Context, location string, rows []forecast.StorageRow) error
}

// SyncPublisher announces a completed sync to downstream consumers.
type SyncPublisher interface {
	PublishSync(ctx context.Context, location string, rows []forecast.StorageRow) error
}

// Syncer runs the persistence path: fetch, decode to storage rows, save,
// then announce. One call is one sync; scheduling belongs to the caller.
type Syncer struct {
	urls      URLBuilder
	fetcher   Fetcher
	decoder   StorageDecoder
	store     ForecastStore
	publisher SyncPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSyncer wires the persistence path. Pass a nil publisher to disable
// sync announcements.
func NewSyncer(urls URLBuilder, fetcher Fetcher, decoder StorageDecoder, store ForecastStore, publisher SyncPublisher, logger *slog.Logger, metrics *observability.Metrics) *Syncer {
	return &Syncer{
		urls:      urls,
		fetcher:   fetcher,
		decoder:   decoder,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Sync fetches and persists the forecast for one location, returning the
// number of rows stored. Decode sentinels pass through unwrapped enough
// for errors.Is, so callers can tell a bad location from a provider
// outage.
func (s *Syncer) Sync(ctx context.Context, locationQuery string) (int, error) {
	start := time.Now()
	s.logger.Info("forecast sync started", "location", locationQuery)

	rows, err := s.loadRows(ctx, locationQuery)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues("error").Inc()
		return 0, err
	}

	if err := s.store.SaveForecasts(ctx, locationQuery, rows); err != nil {
		s.metrics.SyncRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("save forecasts: %w", err)
	}

	if s.publisher != nil {
		// Rows are already persisted; a failed announcement is logged,
		// not returned.
		if err := s.publisher.PublishSync(ctx, locationQuery, rows); err != nil {
			s.logger.Warn("failed to publish sync event",
				"location", locationQuery,
				"error", err)
		}
	}

	s.metrics.SyncRuns.WithLabelValues("success").Inc()
	s.metrics.SyncRowsStored.Add(float64(len(rows)))
	s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("forecast sync complete",
		"location", locationQuery,
		"rows", len(rows))
	return len(rows), nil
}

func (s *Syncer) loadRows(ctx context.Context, locationQuery string) ([]forecast.StorageRow, error) {
	u, err := s.urls.ForecastURL(locationQuery)
	if err != nil {
		return nil, fmt.Errorf("build forecast url: %w", err)
	}
	raw, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	rows, err := s.decoder.StorageRows(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return rows, nil
}
