// Package openweather is the OpenWeatherMap adapter: it builds daily
// forecast URLs and fetches raw payloads for the refresh package to
// decode.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
)

// Client fetches daily forecasts from the OpenWeatherMap API. A circuit
// breaker sheds calls fast after repeated transport failures; it never
// retries, one Fetch is at most one request.
type Client struct {
	apiKey     string
	baseURL    string
	units      string
	days       int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client from the service config.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &Client{
		apiKey:  cfg.OWMAPIKey,
		baseURL: cfg.OWMBaseURL,
		units:   cfg.OWMUnits,
		days:    cfg.OWMDays,
		httpClient: &http.Client{
			Timeout: cfg.OWMTimeout,
		},
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// ForecastURL builds the daily-forecast request URL for a location query.
func (c *Client) ForecastURL(locationQuery string) (string, error) {
	if strings.TrimSpace(locationQuery) == "" {
		return "", errors.New("location query is empty")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	params := url.Values{
		"q":     {locationQuery},
		"mode":  {"json"},
		"units": {c.units},
		"cnt":   {strconv.Itoa(c.days)},
		"appid": {c.apiKey},
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// Fetch retrieves the raw forecast payload behind a URL. Non-200
// responses are errors; a 200 body passes through untouched, including
// provider error documents, which are the decoder's business.
func (c *Client) Fetch(ctx context.Context, fullURL string) ([]byte, error) {
	body, err := c.breaker.Execute(func() (any, error) {
		return c.doRequest(ctx, fullURL)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ProviderDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openweathermap API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.metrics.ProviderRequests.WithLabelValues("success").Inc()
	return body, nil
}
