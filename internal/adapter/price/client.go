// Package price fetches farm-gate crop prices from a market data feed.
// Upstream failures never surface to callers: a static seasonal table
// stands in so harvest advice always has a number to work with.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

// Accuracy tiers attached to a returned price, from freshest to weakest.
const (
	AccuracyHigh      = "high"
	AccuracyMedium    = "medium"
	AccuracyLow       = "low"
	AccuracyEstimated = "estimated"
)

// Recorder persists fetched quotes so the trend fitter has history to
// regress over. Optional; fallback prices are never recorded.
type Recorder interface {
	Record(ctx context.Context, price *store.MarketPrice) error
}

// Client talks to the market price feed and implements the harvest
// engine's price lookup.
type Client struct {
	baseURL  string
	http     *http.Client
	recorder Recorder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewClient(baseURL string, timeout time.Duration, recorder Recorder, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
	}
}

type quoteResponse struct {
	Crop        string  `json:"crop"`
	Location    string  `json:"location"`
	PricePerKg  float64 `json:"price_per_kg"`
	Date        string  `json:"date"`
	Source      string  `json:"source"`
	DemandLevel string  `json:"demand_level"`
}

// PricePerKg returns the freshest known price for a crop at a location
// together with an accuracy tier. A feed outage degrades to the static
// seasonal table rather than an error.
func (c *Client) PricePerKg(ctx context.Context, crop, location string) (float64, string, error) {
	quote, err := c.fetch(ctx, crop, location)
	if err != nil {
		c.logger.Warn("price feed unavailable, using seasonal estimate",
			"crop", crop, "location", location, "error", err)
		c.metrics.ProviderRequests.WithLabelValues("price", "fallback").Inc()
		return FallbackPrice(crop, location, domain.Today()), AccuracyEstimated, nil
	}

	quoteDate, err := time.Parse("2006-01-02", quote.Date)
	if err != nil {
		quoteDate = domain.Today()
	}
	accuracy := accuracyFor(quoteDate)

	if c.recorder != nil {
		row := &store.MarketPrice{
			CropName:    crop,
			Location:    location,
			Date:        quoteDate,
			PricePerKg:  quote.PricePerKg,
			Source:      quote.Source,
			Accuracy:    accuracy,
			DemandLevel: quote.DemandLevel,
		}
		if err := c.recorder.Record(ctx, row); err != nil {
			c.logger.Warn("recording price quote failed", "crop", crop, "error", err)
		}
	}

	return quote.PricePerKg, accuracy, nil
}

// accuracyFor tiers a quote by how stale it is.
func accuracyFor(quoteDate time.Time) string {
	age := domain.Today().Sub(quoteDate)
	switch {
	case age <= 24*time.Hour:
		return AccuracyHigh
	case age <= 7*24*time.Hour:
		return AccuracyMedium
	default:
		return AccuracyLow
	}
}

func (c *Client) fetch(ctx context.Context, crop, location string) (*quoteResponse, error) {
	params := url.Values{}
	params.Set("crop", crop)
	params.Set("location", location)

	reqURL := fmt.Sprintf("%s/prices?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building price request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ProviderAPIDuration.WithLabelValues("price").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("price", "error").Inc()
		return nil, fmt.Errorf("fetching price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues("price", "error").Inc()
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("price", "error").Inc()
		return nil, fmt.Errorf("decoding price response: %w", err)
	}
	if quote.PricePerKg <= 0 {
		c.metrics.ProviderRequests.WithLabelValues("price", "error").Inc()
		return nil, fmt.Errorf("price feed returned non-positive price %.2f", quote.PricePerKg)
	}

	c.metrics.ProviderRequests.WithLabelValues("price", "success").Inc()
	return &quote, nil
}
