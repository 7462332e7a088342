package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// SamplePoint is one geographic probe the landfall locator scans.
type SamplePoint struct {
	Name string
	Lat  float64
	Lng  float64
}

// PhilippineSamplePoints are the fixed city-center probes scanned on every
// typhoon forecast. The caller's own coordinates are appended at scan time.
var PhilippineSamplePoints = []SamplePoint{
	{"Manila", 14.5995, 120.9842},
	{"Quezon City", 14.6760, 121.0437},
	{"Cebu City", 10.3157, 123.8854},
	{"Davao City", 7.1907, 125.4553},
	{"Baguio", 16.4023, 120.5960},
	{"Iloilo City", 10.7202, 122.5621},
	{"Zamboanga City", 6.9214, 122.0790},
	{"Cagayan de Oro", 8.4542, 124.6319},
	{"Legazpi", 13.1391, 123.7438},
	{"Tacloban", 11.2447, 125.0036},
	{"Batangas City", 13.7565, 121.0583},
	{"Tuguegarao", 17.6132, 121.7270},
	{"Laoag", 18.1978, 120.5936},
	{"Puerto Princesa", 9.7392, 118.7353},
	{"General Santos", 6.1164, 125.1716},
	{"Naga", 13.6218, 123.1948},
	{"Roxas City", 11.5853, 122.7511},
	{"Surigao City", 9.7893, 125.4956},
	{"Virac", 13.5846, 124.2306},
	{"Catarman", 12.4989, 124.6377},
}

// DisasterCandidate is a (date, location) pair inferred to carry storm-level
// conditions, with severity and an affected radius derived from wind speed.
type DisasterCandidate struct {
	Date      time.Time `json:"date"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Place     string    `json:"place"`
	Category  string    `json:"category"` // "Super Typhoon", "Category 3", "Category 1-2", "Tropical Storm"
	Severity  Severity  `json:"severity"`
	WindSpeed float64   `json:"wind_speed"`
	Gusts     float64   `json:"gusts"`
	Rainfall  float64   `json:"rainfall"`
	RadiusKm  float64   `json:"radius_km"`
	Active    bool      `json:"active"` // dated today: conditions already occurring
}

// PointForecast pairs a sample point with its forecast series, fetched by
// the caller; the locator itself never does I/O.
type PointForecast struct {
	Point SamplePoint
	Days  []ForecastDay
}

// LocateCandidates scans every point's forecast for storm-grade days and
// aggregates by (date, coordinates rounded to 2 decimals), keeping only the
// strongest wind per key: a later, stronger detection at the same key
// overwrites a weaker one rather than accumulating. Active (today-dated)
// candidates order ahead of future ones; ties order by date ascending.
func LocateCandidates(forecasts []PointForecast) []DisasterCandidate {
	today := Today()
	byKey := make(map[string]DisasterCandidate)

	for _, pf := range forecasts {
		for _, day := range pf.Days {
			risk, ok := classifyStormDay(day, today)
			if !ok {
				continue
			}
			c := DisasterCandidate{
				Date:      risk.Date,
				Lat:       round2(pf.Point.Lat),
				Lng:       round2(pf.Point.Lng),
				Place:     pf.Point.Name,
				Category:  risk.Label,
				Severity:  risk.Severity,
				WindSpeed: risk.Wind,
				Gusts:     risk.Gusts,
				Rainfall:  risk.Rainfall,
				RadiusKm:  affectedRadiusKm(risk.Wind),
				Active:    risk.Date.Equal(today),
			}
			key := candidateKey(c.Date, c.Lat, c.Lng)
			if prev, exists := byKey[key]; !exists || c.WindSpeed > prev.WindSpeed {
				byKey[key] = c
			}
		}
	}

	out := make([]DisasterCandidate, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		// Same date: strongest first, then name for determinism.
		if out[i].WindSpeed != out[j].WindSpeed {
			return out[i].WindSpeed > out[j].WindSpeed
		}
		return out[i].Place < out[j].Place
	})
	return out
}

func candidateKey(date time.Time, lat, lng float64) string {
	return fmt.Sprintf("%s|%.2f|%.2f", date.Format("2006-01-02"), lat, lng)
}

// affectedRadiusKm derives a coarse affected radius from sustained wind,
// mirroring the severity tiers of the storm ladder.
func affectedRadiusKm(wind float64) float64 {
	switch {
	case wind >= 118:
		return 250
	case wind >= 89:
		return 200
	case wind >= 75:
		return 150
	case wind >= 60:
		return 75
	default:
		return 50
	}
}

// HaversineKm is the great-circle distance between two coordinates, used to
// decide which users fall inside a disaster's affected radius.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
