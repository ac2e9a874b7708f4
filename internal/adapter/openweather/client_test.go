package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	cfg := &config.Config{
		OWMAPIKey:  "test-key",
		OWMBaseURL: baseURL,
		OWMUnits:   "metric",
		OWMDays:    7,
		OWMTimeout: 2 * time.Second,
	}
	return NewClient(cfg, observability.NewMetricsForTesting(), discardLogger())
}

func TestForecastURL(t *testing.T) {
	c := testClient("https://api.openweathermap.org/data/2.5/forecast/daily")

	raw, err := c.ForecastURL("London,uk")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "api.openweathermap.org", u.Host)
	assert.Equal(t, "/data/2.5/forecast/daily", u.Path)

	q := u.Query()
	assert.Equal(t, "London,uk", q.Get("q"))
	assert.Equal(t, "json", q.Get("mode"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "7", q.Get("cnt"))
	assert.Equal(t, "test-key", q.Get("appid"))
}

func TestForecastURL_EmptyQuery(t *testing.T) {
	c := testClient("https://api.openweathermap.org/data/2.5/forecast/daily")

	_, err := c.ForecastURL("")
	require.Error(t, err)

	_, err = c.ForecastURL("   ")
	require.Error(t, err)
}

func TestFetch_ReturnsBody(t *testing.T) {
	const payload = `{"cod":"200","list":[]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(body))
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{
		OWMAPIKey:  "test-key",
		OWMBaseURL: srv.URL,
		OWMUnits:   "metric",
		OWMDays:    7,
		OWMTimeout: 50 * time.Millisecond,
	}
	c := NewClient(cfg, observability.NewMetricsForTesting(), discardLogger())

	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetch_ProviderErrorDocumentPassesThrough(t *testing.T) {
	// A 200 response with an error document inside is not the client's
	// problem; the decoder decides what it means.
	const payload = `{"cod":"404","message":"city not found"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(body))
}

func TestFetch_Non200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestFetch_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := c.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
	}
	require.EqualValues(t, 5, hits.Load())

	// Breaker is open now; the next call fails fast without a request.
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 5, hits.Load())
}

func TestFetch_BreakerStaysClosedOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cod":"200","list":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for i := 0; i < 10; i++ {
		_, err := c.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
}
