package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

// DisasterRepo is the persistence surface DisasterService needs.
type DisasterRepo interface {
	Upsert(ctx context.Context, d *store.Disaster) (bool, error)
	List(ctx context.Context, status string) ([]store.Disaster, error)
	ByPublicID(ctx context.Context, publicID string) (*store.Disaster, error)
	ReplaceZones(ctx context.Context, disasterID uint, zones []store.DisasterZone) error
	Zones(ctx context.Context, disasterID uint) ([]store.DisasterZone, error)
	ResolvePassed(ctx context.Context, cutoff, endDate time.Time) (int64, error)
}

// zoneRingPoints is the number of boundary points drawn around a disaster
// center for map rendering.
const zoneRingPoints = 12

// LocateReport summarizes one typhoon location scan.
type LocateReport struct {
	PointsScanned    int                        `json:"points_scanned"`
	Candidates       []domain.DisasterCandidate `json:"candidates"`
	DisastersCreated int                        `json:"disasters_created"`
	DisastersUpdated int                        `json:"disasters_updated"`
	AlertsCreated    int                        `json:"alerts_created"`
	Resolved         int64                      `json:"resolved"`
}

// DisasterService scans fixed probe points for storm-grade forecast days,
// persists located systems, and alerts users inside each affected radius.
type DisasterService struct {
	repo    DisasterRepo
	users   UserRepo
	weather WeatherProvider
	alerts  *AlertService
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDisasterService(
	repo DisasterRepo,
	users UserRepo,
	weather WeatherProvider,
	alerts *AlertService,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *DisasterService {
	return &DisasterService{
		repo:    repo,
		users:   users,
		weather: weather,
		alerts:  alerts,
		logger:  logger,
		metrics: metrics,
	}
}

// LocateTyphoons runs one full location scan over the fixed probe points,
// plus the caller's coordinates when non-zero. days bounds the forecast
// horizon; 0 means the default. Points whose forecast cannot be fetched are
// skipped; the scan proceeds with whatever coverage it has.
func (s *DisasterService) LocateTyphoons(ctx context.Context, lat, lng float64, days int) (LocateReport, error) {
	var report LocateReport

	if days <= 0 || days > forecastDays {
		days = forecastDays
	}
	points := domain.PhilippineSamplePoints
	if lat != 0 || lng != 0 {
		points = append(append([]domain.SamplePoint{}, points...),
			domain.SamplePoint{Name: "Caller location", Lat: lat, Lng: lng})
	}

	forecasts := make([]domain.PointForecast, 0, len(points))
	for _, pt := range points {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		fc, err := s.weather.Forecast(ctx, pt.Lat, pt.Lng, days)
		if err != nil {
			s.logger.Warn("probe forecast unavailable", "point", pt.Name, "error", err)
			continue
		}
		forecasts = append(forecasts, domain.PointForecast{Point: pt, Days: fc})
		report.PointsScanned++
	}

	report.Candidates = domain.LocateCandidates(forecasts)

	users, err := s.users.List(ctx)
	if err != nil {
		return report, fmt.Errorf("listing users: %w", err)
	}

	for _, c := range report.Candidates {
		created, alerted, err := s.persistCandidate(ctx, c, users)
		if err != nil {
			s.logger.Error("persisting disaster candidate failed", "place", c.Place, "error", err)
			continue
		}
		if created {
			report.DisastersCreated++
		} else {
			report.DisastersUpdated++
		}
		report.AlertsCreated += alerted
	}

	// Systems whose date has fully passed get closed out.
	now := domain.Now()
	resolved, err := s.repo.ResolvePassed(ctx, domain.Today().AddDate(0, 0, -1), now)
	if err != nil {
		s.logger.Error("resolving passed disasters failed", "error", err)
	} else {
		report.Resolved = resolved
	}

	s.logger.Info("typhoon scan complete",
		"points_scanned", report.PointsScanned,
		"candidates", len(report.Candidates),
		"created", report.DisastersCreated,
		"updated", report.DisastersUpdated,
		"alerts_created", report.AlertsCreated,
		"resolved", report.Resolved,
	)
	return report, nil
}

func (s *DisasterService) persistCandidate(ctx context.Context, c domain.DisasterCandidate, users []store.User) (created bool, alerted int, err error) {
	status := store.DisasterWarning
	if c.Active {
		status = store.DisasterActive
	}
	now := domain.Now()
	d := &store.Disaster{
		CandidateKey:     store.CandidateKey(c.Date, c.Lat, c.Lng),
		Name:             fmt.Sprintf("%s near %s", c.Category, c.Place),
		Type:             "typhoon",
		Severity:         c.Severity.String(),
		Status:           status,
		CenterLat:        c.Lat,
		CenterLng:        c.Lng,
		AffectedRadiusKm: c.RadiusKm,
		WindSpeed:        c.WindSpeed,
		StartDate:        c.Date,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err = s.repo.Upsert(ctx, d)
	if err != nil {
		return false, 0, err
	}

	if err := s.repo.ReplaceZones(ctx, d.ID, zoneRing(d.CenterLat, d.CenterLng, d.AffectedRadiusKm)); err != nil {
		s.logger.Warn("replacing disaster zones failed", "disaster_id", d.ID, "error", err)
	}

	affected := usersWithin(users, c.Lat, c.Lng, c.RadiusKm)
	if len(affected) == 0 {
		return created, 0, nil
	}

	res := s.alerts.Raise(ctx, RaiseInput{
		Type:     "typhoon",
		Severity: c.Severity,
		Description: fmt.Sprintf("%s near %s on %s: sustained winds %.0f km/h, gusts %.0f km/h",
			c.Category, c.Place, c.Date.Format("Jan 2"), c.WindSpeed, c.Gusts),
		UserIDs:    affected,
		DisasterID: &d.ID,
	})
	if res.Outcome == AlertCreated {
		alerted = 1
	}
	return created, alerted, nil
}

// List returns stored disasters, active first.
func (s *DisasterService) List(ctx context.Context, status string) ([]store.Disaster, error) {
	return s.repo.List(ctx, status)
}

// Get fetches one disaster and its boundary ring.
func (s *DisasterService) Get(ctx context.Context, publicID string) (*store.Disaster, []store.DisasterZone, error) {
	d, err := s.repo.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	zones, err := s.repo.Zones(ctx, d.ID)
	if err != nil {
		return nil, nil, err
	}
	return d, zones, nil
}

func usersWithin(users []store.User, lat, lng, radiusKm float64) []uint {
	var out []uint
	for _, u := range users {
		if domain.HaversineKm(lat, lng, u.Lat, u.Lng) <= radiusKm {
			out = append(out, u.ID)
		}
	}
	return out
}

// zoneRing draws a circle of boundary points around a center. One degree of
// latitude is ~111 km; longitude degrees shrink with the cosine of latitude.
func zoneRing(lat, lng, radiusKm float64) []store.DisasterZone {
	const kmPerDegree = 111.0
	zones := make([]store.DisasterZone, 0, zoneRingPoints)
	for i := 0; i < zoneRingPoints; i++ {
		angle := 2 * math.Pi * float64(i) / zoneRingPoints
		dLat := radiusKm / kmPerDegree * math.Sin(angle)
		dLng := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180)) * math.Cos(angle)
		zones = append(zones, store.DisasterZone{Lat: lat + dLat, Lng: lng + dLng})
	}
	return zones
}
