package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeatherSample is one observed set of conditions at a location. Immutable
// once stored; produced by ingestion, consumed by every risk computation.
type WeatherSample struct {
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
	Rainfall    float64   `json:"rainfall"`    // mm/day
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	WindGusts   float64   `json:"wind_gusts"`  // km/h, 0 when the source has none
	Condition   string    `json:"condition"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ForecastDay is one day of a finite ordered forecast series, typically
// 7-16 entries per request. Not persisted unless promoted to a disaster.
type ForecastDay struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"predicted_temperature"` // °C daily mean
	Rainfall    float64   `json:"predicted_rainfall"`    // mm
	WindSpeed   float64   `json:"predicted_wind"`        // km/h sustained
	WindGusts   float64   `json:"predicted_gusts"`       // km/h
	Humidity    float64   `json:"predicted_humidity"`    // %
	Confidence  float64   `json:"confidence"`            // %
}

// RawObservation is an unprocessed observation message from the ingest topic.
type RawObservation struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// observationRecord is the flat JSON shape published by station collectors.
// Numeric fields arrive as strings from some collectors, so every field is
// parsed leniently.
type observationRecord struct {
	Station     string          `json:"station"`
	Lat         json.RawMessage `json:"lat"`
	Lng         json.RawMessage `json:"lng"`
	Temperature json.RawMessage `json:"temperature"`
	Humidity    json.RawMessage `json:"humidity"`
	Rainfall    json.RawMessage `json:"rainfall"`
	WindSpeed   json.RawMessage `json:"wind_speed"`
	WindGusts   json.RawMessage `json:"wind_gusts"`
	Condition   string          `json:"condition"`
	ObservedAt  string          `json:"observed_at"`
}

// Observation is a parsed, normalized station observation ready for storage.
type Observation struct {
	ID         string        `json:"id"`
	Station    string        `json:"station"`
	Lat        float64       `json:"lat"`
	Lng        float64       `json:"lng"`
	Sample     WeatherSample `json:"sample"`
	Ingested   time.Time     `json:"ingested_at"`
	RawPayload []byte        `json:"-"`
}

// ParseObservation deserializes a raw ingest message into an Observation.
// Out-of-range measurements are clamped rather than rejected so one bad
// sensor field never drops a whole observation.
func ParseObservation(raw RawObservation) (Observation, error) {
	var rec observationRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}
	if rec.Station == "" {
		return Observation{}, fmt.Errorf("parse observation: missing station")
	}

	recordedAt := raw.Timestamp
	if rec.ObservedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.ObservedAt); err == nil {
			recordedAt = t
		}
	}

	lat := parseLenientFloat(rec.Lat)
	lng := parseLenientFloat(rec.Lng)

	sample := WeatherSample{
		Temperature: clamp(parseLenientFloat(rec.Temperature), -50, 60),
		Humidity:    clamp(parseLenientFloat(rec.Humidity), 0, 100),
		Rainfall:    clamp(parseLenientFloat(rec.Rainfall), 0, 1000),
		WindSpeed:   clamp(parseLenientFloat(rec.WindSpeed), 0, 400),
		WindGusts:   clamp(parseLenientFloat(rec.WindGusts), 0, 500),
		Condition:   strings.ToLower(strings.TrimSpace(rec.Condition)),
		RecordedAt:  recordedAt.UTC(),
	}

	return Observation{
		ID:         observationID(rec.Station, lat, lng, sample.RecordedAt),
		Station:    rec.Station,
		Lat:        lat,
		Lng:        lng,
		Sample:     sample,
		Ingested:   clock.Now().UTC(),
		RawPayload: raw.Value,
	}, nil
}

// observationID produces a deterministic ID from the observation's key
// fields. Deterministic IDs make storage upserts idempotent, so replaying
// the ingest topic never duplicates rows.
func observationID(station string, lat, lng float64, recordedAt time.Time) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%d", station, lat, lng, recordedAt.Unix())
	hash := sha256.Sum256([]byte(input))
	return "obs-" + hex.EncodeToString(hash[:8])
}

// parseLenientFloat accepts a JSON number or a quoted numeric string,
// returning 0 for anything unparseable (collectors send "UNK" for missing
// readings).
func parseLenientFloat(raw json.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0
	}
	s = strings.Trim(s, `"`)
	if s == "" || strings.EqualFold(s, "UNK") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TrailingAvgRainfall averages daily rainfall over the trailing samples,
// including the current one. Returns the current sample's rainfall when no
// history is available.
func TrailingAvgRainfall(current WeatherSample, history []WeatherSample) float64 {
	total := current.Rainfall
	n := 1.0
	for _, s := range history {
		total += s.Rainfall
		n++
	}
	return total / n
}

// TrailingMinTemp returns the minimum temperature across the current sample
// and its trailing history.
func TrailingMinTemp(current WeatherSample, history []WeatherSample) float64 {
	min := current.Temperature
	for _, s := range history {
		if s.Temperature < min {
			min = s.Temperature
		}
	}
	return min
}
