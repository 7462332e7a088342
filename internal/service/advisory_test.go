package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/store"
)

type fakePrices struct {
	price    float64
	accuracy string
	err      error
}

func (f *fakePrices) PricePerKg(context.Context, string, string) (float64, string, error) {
	return f.price, f.accuracy, f.err
}

type fakePriceHistory struct {
	points []domain.PricePoint
}

func (f *fakePriceHistory) History(context.Context, string, string, time.Time) ([]domain.PricePoint, error) {
	return f.points, nil
}

func advisoryUsers() map[uint]store.User {
	return map[uint]store.User{
		10: {ID: 10, Name: "Rosa", Location: "Nueva Ecija", Lat: 15.58, Lng: 120.98},
	}
}

func riceCrop(base time.Time, daysPlanted int) store.UserCrop {
	return store.UserCrop{
		ID:           1,
		UserID:       10,
		CropName:     "rice",
		Status:       store.CropGrowing,
		PlantingDate: base.AddDate(0, 0, -daysPlanted),
		AreaHectares: 2,
	}
}

func newAdvisoryService(crops *fakeCropRepo, users *fakeUserRepo, weather *fakeWeather, prices *fakePrices, history *fakePriceHistory) *AdvisoryService {
	var h PriceHistory
	if history != nil {
		h = history
	}
	return NewAdvisoryService(crops, users, weather, prices, h, domain.NewCatalog(), discardLogger())
}

func TestPrescribeCalmWeather(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{riceCrop(base, 60)}}
	users := &fakeUserRepo{users: advisoryUsers()}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}
	prices := &fakePrices{price: 25, accuracy: "regional_average"}

	svc := newAdvisoryService(crops, users, weather, prices, nil)
	p, err := svc.Prescribe(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, uint(1), p.CropID)
	assert.Equal(t, "rice", p.CropName)
	assert.False(t, p.Risk.HasStormRisk())
	assert.Empty(t, p.WeatherNote)
	assert.Equal(t, "regional_average", p.Advice.PriceAccuracy)
	// 60 of 120 growth days elapsed, nowhere near harvest.
	assert.Equal(t, domain.RecommendWait, p.Advice.Recommendation)
}

func TestPrescribeStormAheadRecommendsEarlyHarvest(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	forecast := calmForecast(base, 7)
	// Day 5 is a Category 3 system over a lodging-prone mature crop.
	forecast[4].WindSpeed = 95
	forecast[4].WindGusts = 120
	forecast[4].Rainfall = 40

	crops := &fakeCropRepo{crops: []store.UserCrop{riceCrop(base, 90)}}
	users := &fakeUserRepo{users: advisoryUsers()}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 80, Rainfall: 10, WindSpeed: 20, WindGusts: 28},
		forecast: forecast,
	}
	prices := &fakePrices{price: 25, accuracy: "market_report"}

	svc := newAdvisoryService(crops, users, weather, prices, nil)
	p, err := svc.Prescribe(context.Background(), 1)
	require.NoError(t, err)

	require.True(t, p.Risk.HasStormRisk())
	assert.Contains(t, p.WeatherNote, "Sep 6")
	assert.Equal(t, domain.RecommendHarvestEarlyOptimal, p.Advice.Recommendation)
	require.NotNil(t, p.Advice.RecommendedDate)
	// Two days of margin before the storm's onset.
	assert.Equal(t, base.AddDate(0, 0, 3), *p.Advice.RecommendedDate)
}

func TestPrescribeIncludesPriceTrend(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	history := &fakePriceHistory{points: []domain.PricePoint{
		{Date: base.AddDate(0, 0, -20), PricePerKg: 20},
		{Date: base.AddDate(0, 0, -10), PricePerKg: 23},
		{Date: base.AddDate(0, 0, -1), PricePerKg: 26},
	}}
	crops := &fakeCropRepo{crops: []store.UserCrop{riceCrop(base, 60)}}
	users := &fakeUserRepo{users: advisoryUsers()}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}

	svc := newAdvisoryService(crops, users, weather, &fakePrices{price: 26, accuracy: "market_report"}, history)
	p, err := svc.Prescribe(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, p.PriceTrend)
	assert.Equal(t, domain.TrendRising, p.PriceTrend.Direction)
}

func TestPrescribeForUserSkipsFinishedCrops(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{
		riceCrop(base, 60),
		{ID: 2, UserID: 10, CropName: "corn", Status: store.CropHarvested, PlantingDate: base.AddDate(0, 0, -100)},
	}}
	users := &fakeUserRepo{users: advisoryUsers()}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}

	svc := newAdvisoryService(crops, users, weather, &fakePrices{price: 25, accuracy: "seasonal_fallback"}, nil)
	out, err := svc.PrescribeForUser(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, uint(1), out[0].CropID)
}

func TestPrescribeUnknownCrop(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newAdvisoryService(&fakeCropRepo{}, &fakeUserRepo{}, &fakeWeather{}, &fakePrices{}, nil)

	_, err := svc.Prescribe(context.Background(), 42)
	require.Error(t, err)
}

func TestPrescribePriceFailure(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	freezeAt(t, base.Add(8*time.Hour))

	crops := &fakeCropRepo{crops: []store.UserCrop{riceCrop(base, 60)}}
	users := &fakeUserRepo{users: advisoryUsers()}
	weather := &fakeWeather{
		sample:   domain.WeatherSample{Temperature: 28, Humidity: 75, Rainfall: 6, WindSpeed: 12, WindGusts: 18},
		forecast: calmForecast(base, 7),
	}
	prices := &fakePrices{err: errors.New("provider down")}

	svc := newAdvisoryService(crops, users, weather, prices, nil)
	_, err := svc.Prescribe(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching price")
}
