package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stereovibe/sunshine-forecast/internal/adapter/store"
	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/forecast"
)

var validate = validator.New()

// ForecastController is the display-path seam: queue refreshes and
// resolve row selections against the published list.
type ForecastController interface {
	RequestRefresh(locationQuery string)
	ActivateRow(index int) (forecast.DisplayRow, error)
}

// SyncRunner fetches, persists, and announces a forecast on demand.
type SyncRunner interface {
	Sync(ctx context.Context, locationQuery string) (int, error)
}

// LocationSource reports the coordinate the provider last resolved.
type LocationSource interface {
	LastLocation(ctx context.Context) (forecast.Coordinate, time.Time, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the forecast API plus health, readiness, and metrics
// routes.
type Server struct {
	httpServer      *http.Server
	view            *ViewState
	controller      ForecastController
	syncer          SyncRunner
	locations       LocationSource
	defaultLocation string
	logger          *slog.Logger
}

// NewServer wires the API routes. The view, controller, syncer, and
// location source are the only collaborators handlers touch.
func NewServer(cfg *config.Config, view *ViewState, controller ForecastController, syncer SyncRunner, locations LocationSource, ready ReadinessChecker, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		view:            view,
		controller:      controller,
		syncer:          syncer,
		locations:       locations,
		defaultLocation: cfg.DefaultLocation,
		logger:          logger,
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/readyz", handleReady(ready)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/forecast", s.handleForecastList).Methods("GET")
	api.HandleFunc("/forecast/{index:[0-9]+}", s.handleForecastRow).Methods("GET")
	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
	api.HandleFunc("/sync", s.handleSync).Methods("POST")
	api.HandleFunc("/location", s.handleLocation).Methods("GET")

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// forecastResponse is the display list in its current lifecycle state.
// Rows and Error are mutually exclusive.
type forecastResponse struct {
	State string                `json:"state"`
	Rows  []forecast.DisplayRow `json:"rows,omitempty"`
	Error string                `json:"error,omitempty"`
}

// rowDetail is a single activated forecast row.
type rowDetail struct {
	forecast.DisplayRow
	Summary string `json:"summary"`
}

// locationRequest is the optional body of refresh and sync triggers.
type locationRequest struct {
	Location string `json:"location" validate:"omitempty,min=2,max=120"`
}

type locationResponse struct {
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	LastSeen time.Time `json:"last_seen"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleForecastList renders the view exactly as the controller last
// left it: loading, failure, the forecast rows, or idle before any
// refresh has run.
func (s *Server) handleForecastList(w http.ResponseWriter, _ *http.Request) {
	snap := s.view.Snapshot()
	switch {
	case snap.Loading:
		writeJSON(w, http.StatusOK, forecastResponse{State: "loading"})
	case snap.Failed:
		writeJSON(w, http.StatusOK, forecastResponse{State: "failure", Error: "forecast refresh failed"})
	case len(snap.Rows) > 0:
		writeJSON(w, http.StatusOK, forecastResponse{State: "success", Rows: snap.Rows})
	default:
		writeJSON(w, http.StatusOK, forecastResponse{State: "idle"})
	}
}

func (s *Server) handleForecastRow(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return
	}
	row, err := s.controller.ActivateRow(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rowDetail{DisplayRow: row, Summary: row.Summary()})
}

// handleRefresh queues a display refresh and returns immediately; the
// outcome lands in the view, not this response.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	location, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	s.controller.RequestRefresh(location)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "refresh queued",
		"location": location,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	location, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	days, err := s.syncer.Sync(r.Context(), location)
	if err != nil {
		s.logger.Warn("sync request failed", "location", location, "error", err)
		switch {
		case errors.Is(err, forecast.ErrLocationNotFound):
			writeError(w, http.StatusNotFound, "location not found")
		case errors.Is(err, forecast.ErrUpstreamFailure), errors.Is(err, forecast.ErrMalformedPayload):
			writeError(w, http.StatusBadGateway, "forecast provider failure")
		default:
			writeError(w, http.StatusInternalServerError, "sync failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": location,
		"days":     days,
	})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	coord, seenAt, err := s.locations.LastLocation(r.Context())
	if err != nil {
		var notFound store.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		s.logger.Warn("location lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "location lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Lat: coord.Lat, Lon: coord.Lon, LastSeen: seenAt})
}

// decodeLocation reads the optional request body, validates it, and
// falls back to the configured default location. A false return means
// the error response has already been written.
func (s *Server) decodeLocation(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if req.Location == "" {
		return s.defaultLocation, true
	}
	return req.Location, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
