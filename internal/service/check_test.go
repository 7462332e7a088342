package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

type fakeCropRepo struct {
	crops []store.UserCrop
	err   error
}

func (f *fakeCropRepo) ListActive(context.Context) ([]store.UserCrop, error) {
	return f.crops, f.err
}

func (f *fakeCropRepo) ByUser(_ context.Context, userID uint) ([]store.UserCrop, error) {
	var out []store.UserCrop
	for _, c := range f.crops {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCropRepo) ByID(_ context.Context, id uint) (*store.UserCrop, error) {
	for _, c := range f.crops {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeUserRepo struct {
	users map[uint]store.User
}

func (f *fakeUserRepo) ByID(_ context.Context, id uint) (*store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &u, nil
}

func (f *fakeUserRepo) List(context.Context) ([]store.User, error) {
	var out []store.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeWeather struct {
	sample     domain.WeatherSample
	forecast   []domain.ForecastDay
	currentErr error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (domain.WeatherSample, error) {
	return f.sample, f.currentErr
}

func (f *fakeWeather) Forecast(context.Context, float64, float64, int) ([]domain.ForecastDay, error) {
	return f.forecast, nil
}

type fakeHistory struct {
	samples []domain.WeatherSample
}

func (f *fakeHistory) RecentDaily(context.Context, float64, float64, int, time.Time) ([]domain.WeatherSample, error) {
	return f.samples, nil
}

func calmForecast(base time.Time, days int) []domain.ForecastDay {
	out := make([]domain.ForecastDay, days)
	for i := range out {
		out[i] = domain.ForecastDay{
			Date:        base.AddDate(0, 0, i+1),
			Temperature: 28,
			Rainfall:    6,
			WindSpeed:   15,
			WindGusts:   20,
			Humidity:    75,
		}
	}
	return out
}

func newCheckService(crops *fakeCropRepo, users *fakeUserRepo, weather *fakeWeather, history *fakeHistory, repo AlertRepo) *CheckService {
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	alerts := NewAlertService(repo, nil, logger, metrics)
	return NewCheckService(crops, users, weather, history, alerts, domain.NewCatalog(), logger, metrics)
}

func TestRunWeatherCheckCalmConditions(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{
		{ID: 1, UserID: 10, CropName: "rice", Status: store.CropGrowing, PlantingDate: base.AddDate(0, 0, -60)},
	}}
	users := &fakeUserRepo{users: map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}
	repo := newFakeAlertRepo()

	svc := newCheckService(crops, users, weather, &fakeHistory{}, repo)
	report, err := svc.RunWeatherCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.CropsAnalyzed)
	assert.Zero(t, report.AlertsCreated)
	assert.Zero(t, report.AlertsSuppressed)
	assert.Empty(t, repo.alerts)
}

func TestRunWeatherCheckRaisesTyphoonAlert(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	forecast := calmForecast(base, 7)
	// Day 5 crosses the typhoon forecast thresholds.
	forecast[4].WindSpeed = 80
	forecast[4].WindGusts = 100
	forecast[4].Rainfall = 25

	crops := &fakeCropRepo{crops: []store.UserCrop{
		{ID: 1, UserID: 10, CropName: "rice", Status: store.CropGrowing, PlantingDate: base.AddDate(0, 0, -60)},
	}}
	users := &fakeUserRepo{users: map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 80, Rainfall: 10, WindSpeed: 20, WindGusts: 28},
		forecast: forecast,
	}
	repo := newFakeAlertRepo()

	svc := newCheckService(crops, users, weather, &fakeHistory{}, repo)
	report, err := svc.RunWeatherCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.CropsAnalyzed)
	require.Equal(t, 1, report.AlertsCreated)
	require.Len(t, repo.alerts, 1)
	alert := repo.alerts[0]
	assert.Equal(t, "typhoon", alert.Type)
	assert.Equal(t, "high", alert.Severity)
	assert.Contains(t, alert.Description, "rice")
	assert.Contains(t, alert.Description, "Nueva Ecija")
	// The crop owner is linked.
	assert.Equal(t, 1, repo.links[alert.ID][10])
}

func TestRunWeatherCheckDeduplicatesAcrossCrops(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	forecast := calmForecast(base, 7)
	forecast[4].WindSpeed = 80
	forecast[4].WindGusts = 100
	forecast[4].Rainfall = 25

	// Two rice plantings owned by the same user produce the same finding
	// text, so the second raise is suppressed.
	crops := &fakeCropRepo{crops: []store.UserCrop{
		{ID: 1, UserID: 10, CropName: "rice", Status: store.CropGrowing},
		{ID: 2, UserID: 10, CropName: "rice", Status: store.CropPlanted},
	}}
	users := &fakeUserRepo{users: map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 80, Rainfall: 10, WindSpeed: 20, WindGusts: 28},
		forecast: forecast,
	}
	repo := newFakeAlertRepo()

	svc := newCheckService(crops, users, weather, &fakeHistory{}, repo)
	report, err := svc.RunWeatherCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.CropsAnalyzed)
	assert.Equal(t, 1, report.AlertsCreated)
	assert.Equal(t, 1, report.AlertsSuppressed)
	assert.Len(t, repo.alerts, 1)
}

func TestRunWeatherCheckSkipsUnresolvableCrops(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{
		{ID: 1, UserID: 10, CropName: "rice", Status: store.CropGrowing},
		{ID: 2, UserID: 99, CropName: "corn", Status: store.CropGrowing}, // no such user
	}}
	users := &fakeUserRepo{users: map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}
	repo := newFakeAlertRepo()

	svc := newCheckService(crops, users, weather, &fakeHistory{}, repo)
	report, err := svc.RunWeatherCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.CropsAnalyzed)
	assert.Equal(t, 1, report.CropsSkipped)
}

func TestRunWeatherCheckWeatherUnavailableSkips(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{
		{ID: 1, UserID: 10, CropName: "rice", Status: store.CropGrowing},
	}}
	users := &fakeUserRepo{users: map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}}
	weather := &fakeWeather{currentErr: errors.New("provider down")}
	repo := newFakeAlertRepo()

	svc := newCheckService(crops, users, weather, &fakeHistory{}, repo)
	report, err := svc.RunWeatherCheck(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.CropsAnalyzed)
	assert.Equal(t, 1, report.CropsSkipped)
	assert.Empty(t, repo.alerts)
}

func TestRunWeatherCheckListFailure(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	crops := &fakeCropRepo{err: errors.New("connection refused")}
	svc := newCheckService(crops, &fakeUserRepo{}, &fakeWeather{}, &fakeHistory{}, newFakeAlertRepo())

	_, err := svc.RunWeatherCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing active crops")
}
