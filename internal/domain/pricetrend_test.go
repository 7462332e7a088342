package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pricePoints(start time.Time, prices ...float64) []PricePoint {
	pts := make([]PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = PricePoint{Date: start.AddDate(0, 0, i), PricePerKg: p}
	}
	return pts
}

func TestFitPriceTrend(t *testing.T) {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("rising", func(t *testing.T) {
		trend := FitPriceTrend(pricePoints(start, 20, 21, 22, 23, 24))
		assert.Equal(t, TrendRising, trend.Direction)
		assert.InDelta(t, 1.0, trend.SlopePerDay, 1e-9)
		assert.Equal(t, 5, trend.Points)
	})

	t.Run("falling", func(t *testing.T) {
		trend := FitPriceTrend(pricePoints(start, 24, 23, 22, 21, 20))
		assert.Equal(t, TrendFalling, trend.Direction)
		assert.InDelta(t, -1.0, trend.SlopePerDay, 1e-9)
	})

	t.Run("flat noise is stable", func(t *testing.T) {
		trend := FitPriceTrend(pricePoints(start, 20, 20.01, 19.99, 20.02, 20))
		assert.Equal(t, TrendStable, trend.Direction)
	})

	t.Run("too few points is stable", func(t *testing.T) {
		trend := FitPriceTrend(pricePoints(start, 20, 25))
		assert.Equal(t, TrendStable, trend.Direction)
		assert.Zero(t, trend.SlopePerDay)
	})

	t.Run("empty input", func(t *testing.T) {
		trend := FitPriceTrend(nil)
		assert.Equal(t, TrendStable, trend.Direction)
	})
}

func TestRecommendCrops(t *testing.T) {
	c := NewCatalog()

	t.Run("warm humid wet conditions favor rice over mango", func(t *testing.T) {
		sample := WeatherSample{Temperature: 28, Humidity: 80, Rainfall: 10}
		scores := RecommendCrops(c, sample)
		assert.Len(t, scores, len(c.Profiles()))

		rank := make(map[string]int)
		for i, s := range scores {
			rank[s.Crop] = i
		}
		assert.Less(t, rank["rice"], rank["mango"])
		assert.Equal(t, 100.0, scores[0].Score, "top crop fully inside its bands")
	})

	t.Run("scores are bounded and sorted", func(t *testing.T) {
		sample := WeatherSample{Temperature: 45, Humidity: 10, Rainfall: 0}
		scores := RecommendCrops(c, sample)
		for i, s := range scores {
			assert.GreaterOrEqual(t, s.Score, 0.0)
			assert.LessOrEqual(t, s.Score, 100.0)
			if i > 0 {
				assert.LessOrEqual(t, s.Score, scores[i-1].Score)
			}
		}
	})
}
