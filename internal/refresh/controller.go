// Package refresh coordinates on-demand forecast loading. The Controller
// serves the interactive display path; the Syncer runs the persistence
// path. Both fetch through the same provider seams.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
)

// URLBuilder builds the provider request URL for a location query.
type URLBuilder interface {
	ForecastURL(locationQuery string) (string, error)
}

// Fetcher retrieves the raw forecast payload behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DisplayDecoder converts a raw payload into display rows.
type DisplayDecoder interface {
	DisplayRows(raw []byte) ([]forecast.DisplayRow, error)
}

// View receives the mutually exclusive outcomes of a refresh: a loading
// signal while a fetch is in flight, then either the forecast list or a
// generic error.
type View interface {
	ShowLoading()
	ShowForecast(rows []forecast.DisplayRow)
	ShowError()
}

// State is the controller's refresh lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ErrNoSuchRow is returned by ActivateRow for an index outside the
// currently published rows.
var ErrNoSuchRow = errors.New("no forecast row at index")

// Controller owns the display refresh lifecycle. Refresh requests and
// fetch completions are serialized through Run's event loop; fetches
// themselves run on their own goroutines and are never cancelled by a
// newer request, so overlapping refreshes race and the later completion
// wins.
type Controller struct {
	urls    URLBuilder
	fetcher Fetcher
	decoder DisplayDecoder
	view    View
	logger  *slog.Logger
	metrics *observability.Metrics

	refreshes   chan string
	completions chan completion

	mu    sync.Mutex
	state State
	rows  []forecast.DisplayRow

	ready atomic.Bool
}

// completion carries one finished fetch back into the event loop.
type completion struct {
	rows []forecast.DisplayRow
	err  error
}

func New(urls URLBuilder, fetcher Fetcher, decoder DisplayDecoder, view View, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		urls:        urls,
		fetcher:     fetcher,
		decoder:     decoder,
		view:        view,
		logger:      logger,
		metrics:     metrics,
		refreshes:   make(chan string, 8),
		completions: make(chan completion, 8),
	}
}

// Run drives the controller until the context is cancelled. It is the
// only goroutine that touches the view.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("refresh controller started")
	c.metrics.ControllerRunning.Set(1)
	defer c.metrics.ControllerRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("refresh controller stopping", "reason", ctx.Err())
			return nil
		case query := <-c.refreshes:
			c.beginRefresh(ctx, query)
		case done := <-c.completions:
			c.applyCompletion(done)
		}
	}
}

// RequestRefresh queues a refresh for the given location query. It never
// blocks the caller; when the queue is full the request is dropped.
func (c *Controller) RequestRefresh(locationQuery string) {
	select {
	case c.refreshes <- locationQuery:
	default:
		c.logger.Warn("refresh request dropped, queue full", "location", locationQuery)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rows returns a copy of the currently published forecast rows. Empty
// unless the last completed refresh succeeded.
func (c *Controller) Rows() []forecast.DisplayRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]forecast.DisplayRow, len(c.rows))
	copy(out, c.rows)
	return out
}

// ActivateRow resolves a selection against the published rows, the
// equivalent of tapping a day in the list.
func (c *Controller) ActivateRow(index int) (forecast.DisplayRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.rows) {
		return forecast.DisplayRow{}, fmt.Errorf("%w: %d", ErrNoSuchRow, index)
	}
	return c.rows[index], nil
}

// CheckReadiness reports whether at least one refresh has completed,
// successfully or not, since the controller started.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no refresh has completed yet")
	}
	return nil
}

func (c *Controller) beginRefresh(ctx context.Context, query string) {
	c.logger.Info("refresh started", "location", query)
	c.metrics.RefreshesRequested.Inc()
	c.setState(StateLoading, nil)
	c.view.ShowLoading()
	go c.fetchForecast(ctx, query)
}

// fetchForecast runs off the event loop and posts its result back as a
// completion. The send is abandoned if the controller is shutting down.
func (c *Controller) fetchForecast(ctx context.Context, query string) {
	start := time.Now()
	rows, err := c.loadRows(ctx, query)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	select {
	case c.completions <- completion{rows: rows, err: err}:
	case <-ctx.Done():
	}
}

func (c *Controller) loadRows(ctx context.Context, query string) ([]forecast.DisplayRow, error) {
	u, err := c.urls.ForecastURL(query)
	if err != nil {
		return nil, fmt.Errorf("build forecast url: %w", err)
	}
	raw, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	rows, err := c.decoder.DisplayRows(raw)
	if err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return rows, nil
}

func (c *Controller) applyCompletion(done completion) {
	defer c.ready.Store(true)

	if done.err != nil {
		c.logger.Warn("refresh failed", "error", done.err)
		c.metrics.FetchOutcomes.WithLabelValues("error").Inc()
		c.metrics.RowsVisible.Set(0)
		c.setState(StateFailure, nil)
		c.view.ShowError()
		return
	}
	if len(done.rows) == 0 {
		// A decoded-but-empty result means the provider had nothing for
		// the query. The display treats it like any other failure.
		c.logger.Warn("refresh returned no forecast rows")
		c.metrics.FetchOutcomes.WithLabelValues("empty").Inc()
		c.metrics.RowsVisible.Set(0)
		c.setState(StateFailure, nil)
		c.view.ShowError()
		return
	}

	c.logger.Info("refresh complete", "rows", len(done.rows))
	c.metrics.FetchOutcomes.WithLabelValues("success").Inc()
	c.metrics.RowsVisible.Set(float64(len(done.rows)))
	c.setState(StateSuccess, done.rows)
	c.view.ShowForecast(done.rows)
}

func (c *Controller) setState(s State, rows []forecast.DisplayRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	switch s {
	case StateSuccess:
		c.rows = rows
	case StateFailure:
		c.rows = nil
	}
}
