package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

// CropRepo is the planting surface CheckService needs.
type CropRepo interface {
	ListActive(ctx context.Context) ([]store.UserCrop, error)
	ByUser(ctx context.Context, userID uint) ([]store.UserCrop, error)
	ByID(ctx context.Context, id uint) (*store.UserCrop, error)
}

// UserRepo resolves crop owners and their farm coordinates.
type UserRepo interface {
	ByID(ctx context.Context, id uint) (*store.User, error)
	List(ctx context.Context) ([]store.User, error)
}

// WeatherProvider serves current conditions and daily forecasts for a
// coordinate. Implementations fall back to seasonal averages rather than
// erroring when the upstream API is down, so a returned error means the
// location itself could not be served.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (domain.WeatherSample, error)
	Forecast(ctx context.Context, lat, lng float64, days int) ([]domain.ForecastDay, error)
}

// WeatherHistory serves the persisted trailing observations behind drought
// and frost judgement.
type WeatherHistory interface {
	RecentDaily(ctx context.Context, lat, lng float64, days int, until time.Time) ([]domain.WeatherSample, error)
}

const (
	historyDays  = 7
	forecastDays = 7
)

// CheckReport summarizes one weather check run.
type CheckReport struct {
	CropsAnalyzed    int `json:"crops_analyzed"`
	AlertsCreated    int `json:"alerts_created"`
	AlertsSuppressed int `json:"alerts_suppressed"`
	CropsSkipped     int `json:"crops_skipped"`
}

// CheckService walks every active crop, evaluates current and forecast
// weather against the crop's thresholds, and raises alerts through
// AlertService.
type CheckService struct {
	crops   CropRepo
	users   UserRepo
	weather WeatherProvider
	history WeatherHistory
	alerts  *AlertService
	catalog *domain.Catalog
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewCheckService(
	crops CropRepo,
	users UserRepo,
	weather WeatherProvider,
	history WeatherHistory,
	alerts *AlertService,
	catalog *domain.Catalog,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *CheckService {
	return &CheckService{
		crops:   crops,
		users:   users,
		weather: weather,
		history: history,
		alerts:  alerts,
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
}

// RunWeatherCheck executes one full pass over all active crops. A crop whose
// owner or weather cannot be resolved is skipped and counted; it never
// aborts the run.
func (s *CheckService) RunWeatherCheck(ctx context.Context) (CheckReport, error) {
	start := time.Now()
	s.alerts.SweepStale(ctx)

	crops, err := s.crops.ListActive(ctx)
	if err != nil {
		return CheckReport{}, fmt.Errorf("listing active crops: %w", err)
	}

	var report CheckReport
	userCache := make(map[uint]*store.User)
	currentCache := make(map[string]domain.WeatherSample)
	forecastCache := make(map[string][]domain.ForecastDay)

	for _, crop := range crops {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		owner, err := s.owner(ctx, crop.UserID, userCache)
		if err != nil {
			s.logger.Warn("skipping crop, owner lookup failed",
				"crop_id", crop.ID, "user_id", crop.UserID, "error", err)
			report.CropsSkipped++
			continue
		}

		created, suppressed, ok := s.checkCrop(ctx, crop, owner, currentCache, forecastCache)
		if !ok {
			report.CropsSkipped++
			continue
		}
		report.CropsAnalyzed++
		report.AlertsCreated += created
		report.AlertsSuppressed += suppressed
	}

	s.metrics.CheckDuration.Observe(time.Since(start).Seconds())
	s.metrics.CropsAnalyzed.Observe(float64(report.CropsAnalyzed))
	s.logger.Info("weather check complete",
		"crops_analyzed", report.CropsAnalyzed,
		"alerts_created", report.AlertsCreated,
		"alerts_suppressed", report.AlertsSuppressed,
		"crops_skipped", report.CropsSkipped,
	)
	return report, nil
}

func (s *CheckService) owner(ctx context.Context, userID uint, cache map[uint]*store.User) (*store.User, error) {
	if u, ok := cache[userID]; ok {
		return u, nil
	}
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache[userID] = u
	return u, nil
}

// checkCrop evaluates one crop against current and forecast weather,
// raising one alert per finding. Returns created and suppressed counts and
// whether the crop could be evaluated at all.
func (s *CheckService) checkCrop(
	ctx context.Context,
	crop store.UserCrop,
	owner *store.User,
	currentCache map[string]domain.WeatherSample,
	forecastCache map[string][]domain.ForecastDay,
) (created, suppressed int, ok bool) {
	locKey := fmt.Sprintf("%.2f|%.2f", owner.Lat, owner.Lng)

	sample, okSample := currentCache[locKey]
	if !okSample {
		var err error
		sample, err = s.weather.Current(ctx, owner.Lat, owner.Lng)
		if err != nil {
			s.logger.Warn("skipping crop, weather unavailable",
				"crop_id", crop.ID, "location", owner.Location, "error", err)
			return 0, 0, false
		}
		currentCache[locKey] = sample
	}

	profile := s.catalog.ProfileFor(crop.CropName)

	history, err := s.history.RecentDaily(ctx, owner.Lat, owner.Lng, historyDays, domain.Now())
	if err != nil {
		// Without history the drought and frost signals are silent; the
		// remaining checks still run.
		s.logger.Warn("weather history unavailable", "crop_id", crop.ID, "error", err)
		history = nil
	}

	findings := domain.EvaluateSample(sample, history, profile)

	forecast, okForecast := forecastCache[locKey]
	if !okForecast {
		forecast, err = s.weather.Forecast(ctx, owner.Lat, owner.Lng, forecastDays)
		if err != nil {
			s.logger.Warn("forecast unavailable", "crop_id", crop.ID, "error", err)
			forecast = nil
		}
		forecastCache[locKey] = forecast
	}

	if len(forecast) > 0 {
		summary := domain.ScanForecast(forecast, profile)
		findings = append(findings, stormFindings(summary, crop.CropName)...)
	}

	for _, f := range findings {
		res := s.alerts.Raise(ctx, RaiseInput{
			Type:     string(f.Category),
			Severity: f.Severity,
			Description: fmt.Sprintf("%s (%s, %s): %s",
				crop.CropName, owner.Location, owner.Name, f.Description),
			UserIDs: []uint{owner.ID},
		})
		switch res.Outcome {
		case AlertCreated:
			created++
		case AlertSuppressed:
			suppressed++
		}
	}
	return created, suppressed, true
}

// stormFindings converts a forecast scan into alertable findings: one for
// the storm system itself at the summary's overall severity, plus the
// crop-condition findings the scan produced.
func stormFindings(summary domain.RiskSummary, cropName string) []domain.RiskFinding {
	var out []domain.RiskFinding
	if summary.HasStormRisk() {
		day := summary.StormDays[0]
		for _, d := range summary.StormDays {
			if d.Date.Equal(summary.HighestRiskDate) {
				day = d
				break
			}
		}
		out = append(out, domain.RiskFinding{
			Category: day.Category,
			Severity: summary.OverallRisk,
			Crop:     cropName,
			Description: fmt.Sprintf("%s conditions expected %s: winds %.0f km/h, rainfall %.0f mm",
				day.Label, day.Date.Format("Jan 2"), day.Wind, day.Rainfall),
			Value:     day.Wind,
			Threshold: 0,
		})
	}
	out = append(out, summary.CropFindings...)
	return out
}
