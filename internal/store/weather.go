package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Arkie13/agrialert/internal/domain"
)

// WeatherStore persists ingested observations and serves the trailing
// history the risk evaluator reads.
type WeatherStore struct {
	db *gorm.DB
}

func NewWeatherStore(db *gorm.DB) *WeatherStore {
	return &WeatherStore{db: db}
}

// InsertObservation records one ingested observation. The deterministic
// observation id makes topic replays no-ops.
func (s *WeatherStore) InsertObservation(ctx context.Context, obs domain.Observation) (bool, error) {
	rec := WeatherRecord{
		ObservationID: obs.ID,
		Station:       obs.Station,
		Lat:           obs.Lat,
		Lng:           obs.Lng,
		Temperature:   obs.Sample.Temperature,
		Humidity:      obs.Sample.Humidity,
		Rainfall:      obs.Sample.Rainfall,
		WindSpeed:     obs.Sample.WindSpeed,
		WindGusts:     obs.Sample.WindGusts,
		Condition:     obs.Sample.Condition,
		RecordedAt:    obs.Sample.RecordedAt,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "observation_id"}}, DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("inserting observation %s: %w", obs.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// StoreBatch persists a parsed batch, returning how many rows were newly
// stored. Replayed duplicates are skipped by the observation id and not
// counted. The first failed insert aborts the batch so the ingest loop can
// retry it whole.
func (s *WeatherStore) StoreBatch(ctx context.Context, observations []domain.Observation) (int, error) {
	stored := 0
	for _, obs := range observations {
		created, err := s.InsertObservation(ctx, obs)
		if err != nil {
			return stored, err
		}
		if created {
			stored++
		}
	}
	return stored, nil
}

// RecentDaily returns one sample per day near (lat, lng) covering the last
// `days` days, oldest first. Days collapse to the wettest observation, the
// one that matters for flood and drought judgement. The quarter-degree box
// is roughly a 25 km reach at Philippine latitudes.
func (s *WeatherStore) RecentDaily(ctx context.Context, lat, lng float64, days int, until time.Time) ([]domain.WeatherSample, error) {
	const box = 0.25
	since := until.AddDate(0, 0, -days)
	var recs []WeatherRecord
	err := s.db.WithContext(ctx).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", lat-box, lat+box, lng-box, lng+box).
		Where("recorded_at >= ? AND recorded_at <= ?", since, until).
		Order("recorded_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("querying recent weather: %w", err)
	}

	byDay := make(map[string]domain.WeatherSample)
	var order []string
	for _, r := range recs {
		day := r.RecordedAt.UTC().Format("2006-01-02")
		sample := domain.WeatherSample{
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			Rainfall:    r.Rainfall,
			WindSpeed:   r.WindSpeed,
			WindGusts:   r.WindGusts,
			Condition:   r.Condition,
			RecordedAt:  r.RecordedAt,
		}
		prev, ok := byDay[day]
		if !ok {
			byDay[day] = sample
			order = append(order, day)
			continue
		}
		if sample.Rainfall > prev.Rainfall {
			byDay[day] = sample
		}
	}

	out := make([]domain.WeatherSample, 0, len(order))
	for _, day := range order {
		out = append(out, byDay[day])
	}
	return out, nil
}

// LatestFor returns the newest observation near (lat, lng), or nil when the
// area has no coverage.
func (s *WeatherStore) LatestFor(ctx context.Context, lat, lng float64) (*domain.WeatherSample, error) {
	const box = 0.25
	var rec WeatherRecord
	err := s.db.WithContext(ctx).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", lat-box, lat+box, lng-box, lng+box).
		Order("recorded_at DESC").
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("querying latest weather: %w", err)
	}
	sample := domain.WeatherSample{
		Temperature: rec.Temperature,
		Humidity:    rec.Humidity,
		Rainfall:    rec.Rainfall,
		WindSpeed:   rec.WindSpeed,
		WindGusts:   rec.WindGusts,
		Condition:   rec.Condition,
		RecordedAt:  rec.RecordedAt,
	}
	return &sample, nil
}
