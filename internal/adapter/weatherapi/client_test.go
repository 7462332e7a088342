package weatherapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
)

const forecastBody = `{
	"current": {
		"temperature_2m": 29.4,
		"relative_humidity_2m": 78,
		"precipitation": 0.4,
		"wind_speed_10m": 14.2,
		"wind_gusts_10m": 22.1
	},
	"daily": {
		"time": ["2025-09-02", "2025-09-03"],
		"temperature_2m_max": [31.0, 30.2],
		"precipitation_sum": [4.5, 28.0],
		"wind_speed_10m_max": [18.0, 82.0],
		"wind_gusts_10m_max": [25.0, 104.0],
		"relative_humidity_2m_mean": [74, 88]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, slog.Default(), observability.NewMetricsForTesting())
}

func TestCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "14.5995", r.URL.Query().Get("latitude"))
		assert.Equal(t, "kmh", r.URL.Query().Get("wind_speed_unit"))
		w.Write([]byte(forecastBody))
	})

	sample, err := c.Current(context.Background(), 14.5995, 120.9842)
	require.NoError(t, err)
	assert.InEpsilon(t, 29.4, sample.Temperature, 0.0001)
	assert.InEpsilon(t, 78.0, sample.Humidity, 0.0001)
	assert.InEpsilon(t, 14.2, sample.WindSpeed, 0.0001)
	assert.InEpsilon(t, 22.1, sample.WindGusts, 0.0001)
}

func TestForecast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		w.Write([]byte(forecastBody))
	})

	days, err := c.Forecast(context.Background(), 14.5995, 120.9842, 7)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.InEpsilon(t, 31.0, days[0].Temperature, 0.0001)
	assert.InEpsilon(t, 82.0, days[1].WindSpeed, 0.0001)
	assert.InEpsilon(t, 104.0, days[1].WindGusts, 0.0001)
	assert.InEpsilon(t, 28.0, days[1].Rainfall, 0.0001)
}

func TestCurrentFallsBackOnServerError(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, 8, 15, 6, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	sample, err := c.Current(context.Background(), 14.5995, 120.9842)
	require.NoError(t, err)

	// August normals.
	assert.InEpsilon(t, 28.5, sample.Temperature, 0.0001)
	assert.Equal(t, "seasonal average", sample.Condition)
}

func TestForecastFallbackIsNeverStormGrade(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	days, err := c.Forecast(context.Background(), 14.5995, 120.9842, 7)
	require.NoError(t, err)
	require.Len(t, days, 7)

	profile := domain.DefaultProfile()
	summary := domain.ScanForecast(days, profile)
	assert.False(t, summary.HasStormRisk())
	for i, d := range days {
		assert.Less(t, d.WindSpeed, 50.0, "day %d", i)
		assert.Less(t, d.Rainfall, 20.0, "day %d", i)
		assert.InDelta(t, 30, d.Confidence, 1e-9, "day %d confidence percent", i)
	}
}

func TestSeasonalForecastCrossesMonths(t *testing.T) {
	days := SeasonalForecast(time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC), 5)
	require.Len(t, days, 5)
	// May normals for the first two days, June normals after.
	assert.InEpsilon(t, 30.5, days[0].Temperature, 0.0001)
	assert.InEpsilon(t, 29.5, days[3].Temperature, 0.0001)
}
