package domain

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// PricePoint is one (date, price) observation for a crop at a location.
type PricePoint struct {
	Date       time.Time `json:"date"`
	PricePerKg float64   `json:"price_per_kg"`
}

// TrendDirection labels which way a fitted price line points.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// PriceTrend is a least-squares fit over recent prices.
type PriceTrend struct {
	Direction     TrendDirection `json:"direction"`
	SlopePerDay   float64        `json:"slope_per_day"` // PHP/kg per day
	ChangePercent float64        `json:"change_percent"`
	Points        int            `json:"points"`
}

// trendStableBand is the daily relative slope below which a fit counts as
// stable: under 0.2%/day the market noise dominates.
const trendStableBand = 0.002

// FitPriceTrend fits an ordinary least-squares line to the points and labels
// its direction. Fewer than 3 points is always stable; there is nothing to
// fit.
func FitPriceTrend(points []PricePoint) PriceTrend {
	if len(points) < 3 {
		return PriceTrend{Direction: TrendStable, Points: len(points)}
	}

	origin := points[0].Date
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	var sum float64
	for i, pt := range points {
		xs[i] = pt.Date.Sub(origin).Hours() / 24
		ys[i] = pt.PricePerKg
		sum += pt.PricePerKg
	}
	mean := sum / float64(len(points))

	_, slope := stat.LinearRegression(xs, ys, nil, false)

	trend := PriceTrend{SlopePerDay: slope, Points: len(points)}
	if mean > 0 {
		trend.ChangePercent = slope / mean * 100
	}
	switch {
	case mean > 0 && slope/mean > trendStableBand:
		trend.Direction = TrendRising
	case mean > 0 && slope/mean < -trendStableBand:
		trend.Direction = TrendFalling
	default:
		trend.Direction = TrendStable
	}
	return trend
}
