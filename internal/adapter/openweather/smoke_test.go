//go:build openweather

package openweather

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/observability"
)

// These tests hit the real OpenWeatherMap API and require a valid OWM_API_KEY env var.
// Run with: go test -tags=openweather ./internal/adapter/openweather/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OWM_API_KEY")
	if key == "" {
		t.Fatal("OWM_API_KEY must be set to run smoke tests")
	}
	cfg := &config.Config{
		OWMAPIKey:  key,
		OWMBaseURL: "https://api.openweathermap.org/data/2.5/forecast/daily",
		OWMUnits:   "metric",
		OWMDays:    7,
		OWMTimeout: 10 * time.Second,
	}
	return NewClient(cfg, observability.NewMetricsForTesting(), discardLogger())
}

func TestSmoke_FetchDailyForecast(t *testing.T) {
	c := smokeClient(t)

	u, err := c.ForecastURL("London,uk")
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), u)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cod")
	assert.Contains(t, string(body), "list")
}

func TestSmoke_UnknownCity(t *testing.T) {
	c := smokeClient(t)

	u, err := c.ForecastURL("xyznonexistent99")
	require.NoError(t, err)

	// The provider answers unknown cities with an error document, not an
	// HTTP error; the client must pass it through.
	body, err := c.Fetch(context.Background(), u)
	if err != nil {
		t.Skipf("provider returned transport error for unknown city: %v", err)
	}
	assert.Contains(t, string(body), "cod")
}
