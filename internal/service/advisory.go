package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/store"
)

// PriceProvider serves farm-gate prices. Implementations fall back to the
// static seasonal table rather than erroring, reporting the provenance tier
// of whatever they served.
type PriceProvider interface {
	PricePerKg(ctx context.Context, crop, location string) (price float64, accuracy string, err error)
}

// PriceHistory serves recorded price points for trend fitting.
type PriceHistory interface {
	History(ctx context.Context, crop, location string, since time.Time) ([]domain.PricePoint, error)
}

const priceTrendDays = 30

// Prescription is the full harvest-timing answer for one crop: the forecast
// risk picture, the priced scenarios, and the market trend.
type Prescription struct {
	CropID      uint                 `json:"crop_id"`
	CropName    string               `json:"crop_name"`
	UserID      uint                 `json:"user_id"`
	Location    string               `json:"location"`
	Risk        domain.RiskSummary   `json:"risk"`
	Advice      domain.HarvestAdvice `json:"advice"`
	PriceTrend  *domain.PriceTrend   `json:"price_trend,omitempty"`
	WeatherNote string               `json:"weather_note,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// AdvisoryService composes forecast scanning, the harvest engine, and
// market prices into prescriptions.
type AdvisoryService struct {
	crops   CropRepo
	users   UserRepo
	weather WeatherProvider
	prices  PriceProvider
	history PriceHistory
	catalog *domain.Catalog
	logger  *slog.Logger
}

func NewAdvisoryService(
	crops CropRepo,
	users UserRepo,
	weather WeatherProvider,
	prices PriceProvider,
	history PriceHistory,
	catalog *domain.Catalog,
	logger *slog.Logger,
) *AdvisoryService {
	return &AdvisoryService{
		crops:   crops,
		users:   users,
		weather: weather,
		prices:  prices,
		history: history,
		catalog: catalog,
		logger:  logger,
	}
}

// Prescribe produces the harvest-timing prescription for one crop.
func (s *AdvisoryService) Prescribe(ctx context.Context, cropID uint) (*Prescription, error) {
	crop, err := s.crops.ByID(ctx, cropID)
	if err != nil {
		return nil, fmt.Errorf("loading crop %d: %w", cropID, err)
	}
	owner, err := s.users.ByID(ctx, crop.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading crop %d owner: %w", cropID, err)
	}
	return s.prescribe(ctx, *crop, *owner)
}

// PrescribeForUser produces prescriptions for every planting a user owns.
// A crop that cannot be prescribed is logged and skipped.
func (s *AdvisoryService) PrescribeForUser(ctx context.Context, userID uint) ([]Prescription, error) {
	owner, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}
	crops, err := s.crops.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading crops for user %d: %w", userID, err)
	}

	out := make([]Prescription, 0, len(crops))
	for _, crop := range crops {
		if crop.Status == store.CropHarvested || crop.Status == store.CropFailed {
			continue
		}
		p, err := s.prescribe(ctx, crop, *owner)
		if err != nil {
			s.logger.Warn("prescription failed", "crop_id", crop.ID, "error", err)
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *AdvisoryService) prescribe(ctx context.Context, crop store.UserCrop, owner store.User) (*Prescription, error) {
	profile := s.catalog.ProfileFor(crop.CropName)

	forecast, err := s.weather.Forecast(ctx, owner.Lat, owner.Lng, forecastDays)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	risk := domain.ScanForecast(forecast, profile)

	price, accuracy, err := s.prices.PricePerKg(ctx, crop.CropName, owner.Location)
	if err != nil {
		return nil, fmt.Errorf("fetching price: %w", err)
	}

	advice := domain.Advise(domain.CropState{
		CropID:       crop.ID,
		CropName:     crop.CropName,
		PlantingDate: crop.PlantingDate,
		AreaHectares: crop.AreaHectares,
	}, profile, risk, price)
	advice.PriceAccuracy = accuracy

	p := &Prescription{
		CropID:      crop.ID,
		CropName:    crop.CropName,
		UserID:      owner.ID,
		Location:    owner.Location,
		Risk:        risk,
		Advice:      advice,
		GeneratedAt: domain.Now(),
	}
	if risk.HasStormRisk() {
		p.WeatherNote = fmt.Sprintf("storm conditions expected around %s",
			risk.OnsetDate.Format("Jan 2"))
	}

	if s.history != nil {
		points, err := s.history.History(ctx, crop.CropName, owner.Location, domain.Now().AddDate(0, 0, -priceTrendDays))
		if err != nil {
			s.logger.Warn("price history unavailable", "crop", crop.CropName, "error", err)
		} else if len(points) > 0 {
			trend := domain.FitPriceTrend(points)
			p.PriceTrend = &trend
		}
	}
	return p, nil
}
