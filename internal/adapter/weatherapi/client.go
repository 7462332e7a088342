// Package weatherapi implements the weather provider against the Open-Meteo
// forecast API, with a seasonal-average fallback so risk evaluation keeps
// running through provider outages.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
)

// Client implements service.WeatherProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Open-Meteo weather client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Current returns current conditions for a coordinate. A provider failure
// falls back to the seasonal average for the month, never an error: the
// check must keep running through outages.
func (c *Client) Current(ctx context.Context, lat, lng float64) (domain.WeatherSample, error) {
	resp, err := c.fetch(ctx, lat, lng, 1)
	if err != nil {
		c.logger.Warn("weather provider unavailable, using seasonal average",
			"lat", lat, "lng", lng, "error", err)
		c.metrics.ProviderRequests.WithLabelValues("weather", "fallback").Inc()
		return SeasonalSample(domain.Today()), nil
	}
	c.metrics.ProviderRequests.WithLabelValues("weather", "success").Inc()

	cur := resp.Current
	return domain.WeatherSample{
		Temperature: cur.Temperature,
		Humidity:    cur.Humidity,
		Rainfall:    cur.Precipitation,
		WindSpeed:   cur.WindSpeed,
		WindGusts:   cur.WindGusts,
		RecordedAt:  domain.Now(),
	}, nil
}

// Forecast returns up to days daily entries. Falls back to flat seasonal
// averages on provider failure; fallback days never carry storm conditions,
// so an outage cannot fabricate a typhoon.
func (c *Client) Forecast(ctx context.Context, lat, lng float64, days int) ([]domain.ForecastDay, error) {
	resp, err := c.fetch(ctx, lat, lng, days)
	if err != nil {
		c.logger.Warn("forecast provider unavailable, using seasonal average",
			"lat", lat, "lng", lng, "error", err)
		c.metrics.ProviderRequests.WithLabelValues("weather", "fallback").Inc()
		return SeasonalForecast(domain.Today(), days), nil
	}
	c.metrics.ProviderRequests.WithLabelValues("weather", "success").Inc()

	d := resp.Daily
	out := make([]domain.ForecastDay, 0, len(d.Time))
	for i := range d.Time {
		date, err := time.Parse("2006-01-02", d.Time[i])
		if err != nil {
			continue
		}
		day := domain.ForecastDay{Date: date}
		if i < len(d.TemperatureMax) {
			day.Temperature = d.TemperatureMax[i]
		}
		if i < len(d.PrecipitationSum) {
			day.Rainfall = d.PrecipitationSum[i]
		}
		if i < len(d.WindSpeedMax) {
			day.WindSpeed = d.WindSpeedMax[i]
		}
		if i < len(d.WindGustsMax) {
			day.WindGusts = d.WindGustsMax[i]
		}
		if i < len(d.HumidityMean) {
			day.Humidity = d.HumidityMean[i]
		}
		out = append(out, day)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64, days int) (*forecastResponse, error) {
	params := url.Values{
		"latitude":        {fmt.Sprintf("%.4f", lat)},
		"longitude":       {fmt.Sprintf("%.4f", lng)},
		"current":         {"temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m,wind_gusts_10m"},
		"daily":           {"temperature_2m_max,precipitation_sum,wind_speed_10m_max,wind_gusts_10m_max,relative_humidity_2m_mean"},
		"forecast_days":   {fmt.Sprintf("%d", days)},
		"wind_speed_unit": {"kmh"},
		"timezone":        {"UTC"},
	}
	fullURL := c.baseURL + "/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderAPIDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Open-Meteo API response types.

type forecastResponse struct {
	Current currentBlock `json:"current"`
	Daily   dailyBlock   `json:"daily"`
}

type currentBlock struct {
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindGusts     float64 `json:"wind_gusts_10m"`
}

type dailyBlock struct {
	Time             []string  `json:"time"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
	WindGustsMax     []float64 `json:"wind_gusts_10m_max"`
	HumidityMean     []float64 `json:"relative_humidity_2m_mean"`
}
