// Package geocode resolves Philippine place names to coordinates through
// the Nominatim search API, with an LRU cache in front and a Manila
// fallback so registration never blocks on the geocoder.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Arkie13/agrialert/internal/observability"
)

// Manila city center, the fallback coordinate when a place cannot be
// resolved.
const (
	FallbackLat = 14.5995
	FallbackLng = 120.9842
)

// Place is one resolved location.
type Place struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"` // true when the Manila default was served
}

// Client resolves place names against Nominatim.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim geocoding client.
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

// Locate resolves a place name to coordinates. Failures and empty results
// fall back to Manila rather than erroring; the Fallback flag records the
// provenance.
func (c *Client) Locate(ctx context.Context, query string) (Place, error) {
	place, err := c.search(ctx, query)
	if err != nil {
		c.logger.Warn("geocoding failed, using Manila fallback", "query", query, "error", err)
		c.metrics.ProviderRequests.WithLabelValues("geocode", "fallback").Inc()
		return Place{Name: query, Lat: FallbackLat, Lng: FallbackLng, Fallback: true}, nil
	}
	c.metrics.ProviderRequests.WithLabelValues("geocode", "success").Inc()
	return place, nil
}

func (c *Client) search(ctx context.Context, query string) (Place, error) {
	params := url.Values{
		"q":            {query},
		"format":       {"json"},
		"limit":        {"1"},
		"countrycodes": {"ph"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "agrialert/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderAPIDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds())
	if err != nil {
		return Place{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Place{}, fmt.Errorf("geocode API error: status %d: %s", resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("no results for %q", query)
	}

	r := results[0]
	lat, err1 := strconv.ParseFloat(r.Lat, 64)
	lng, err2 := strconv.ParseFloat(r.Lon, 64)
	if err1 != nil || err2 != nil {
		return Place{}, fmt.Errorf("invalid coordinates in response: %q, %q", r.Lat, r.Lon)
	}
	return Place{
		Name:       r.DisplayName,
		Lat:        lat,
		Lng:        lng,
		Confidence: r.Importance,
	}, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type searchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}
