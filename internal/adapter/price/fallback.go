package price

import (
	"strings"
	"time"
)

// basePricePHP holds rough farm-gate prices in PHP per kilogram. Values
// track published DA price monitoring averages and only need to be in the
// right ballpark; they carry the "estimated" accuracy tier.
var basePricePHP = map[string]float64{
	"rice":         22.0,
	"palay":        22.0,
	"corn":         17.5,
	"maize":        17.5,
	"banana":       14.0,
	"coconut":      9.0,
	"sugarcane":    2.8,
	"tomato":       45.0,
	"onion":        80.0,
	"garlic":       120.0,
	"cabbage":      35.0,
	"eggplant":     40.0,
	"mango":        65.0,
	"cassava":      10.0,
	"sweet potato": 25.0,
}

const defaultBasePrice = 30.0

// Wet-season supply pressure lowers farm-gate prices slightly; dry-season
// scarcity raises them.
func seasonFactor(month time.Month) float64 {
	if month >= time.June && month <= time.November {
		return 0.95
	}
	return 1.08
}

// locationFactor nudges the estimate for markets known to trade above or
// below the national average.
var locationFactors = map[string]float64{
	"metro manila": 1.15,
	"manila":       1.15,
	"quezon city":  1.12,
	"cebu":         1.08,
	"davao":        0.95,
	"nueva ecija":  0.92,
	"isabela":      0.90,
	"iloilo":       0.98,
}

func locationFactor(location string) float64 {
	loc := strings.ToLower(strings.TrimSpace(location))
	for key, factor := range locationFactors {
		if strings.Contains(loc, key) {
			return factor
		}
	}
	return 1.0
}

// FallbackPrice estimates a farm-gate price from the static table adjusted
// for season and location. Used whenever the market feed is unreachable.
func FallbackPrice(crop, location string, on time.Time) float64 {
	name := strings.ToLower(strings.TrimSpace(crop))
	base, ok := basePricePHP[name]
	if !ok {
		for key, p := range basePricePHP {
			if strings.Contains(name, key) || strings.Contains(key, name) {
				base = p
				ok = true
				break
			}
		}
	}
	if !ok {
		base = defaultBasePrice
	}
	return base * seasonFactor(on.Month()) * locationFactor(location)
}
