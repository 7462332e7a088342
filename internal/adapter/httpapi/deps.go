// Package httpapi exposes the platform over a gin REST surface: CRUD for
// users, crops, prices and alerts, plus the orchestrated operations
// (weather check, prescriptions, typhoon scan, crop recommendations).
package httpapi

import (
	"context"
	"time"

	"github.com/Arkie13/agrialert/internal/adapter/geocode"
	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/service"
	"github.com/Arkie13/agrialert/internal/store"
)

// The handler layer declares the surfaces it consumes, so the concrete
// services and stores stay swappable in tests.

type AlertReader interface {
	List(ctx context.Context, status string, before *time.Time, limit int) ([]store.Alert, error)
	Get(ctx context.Context, id uint) (*store.Alert, error)
}

type CheckRunner interface {
	RunWeatherCheck(ctx context.Context) (service.CheckReport, error)
}

type Advisor interface {
	Prescribe(ctx context.Context, cropID uint) (*service.Prescription, error)
	PrescribeForUser(ctx context.Context, userID uint) ([]service.Prescription, error)
}

type DisasterReader interface {
	LocateTyphoons(ctx context.Context, lat, lng float64, days int) (service.LocateReport, error)
	List(ctx context.Context, status string) ([]store.Disaster, error)
	Get(ctx context.Context, publicID string) (*store.Disaster, []store.DisasterZone, error)
}

type UserRepo interface {
	Create(ctx context.Context, user *store.User) error
	ByID(ctx context.Context, id uint) (*store.User, error)
	List(ctx context.Context) ([]store.User, error)
}

type CropRepo interface {
	Create(ctx context.Context, crop *store.UserCrop) error
	ByID(ctx context.Context, id uint) (*store.UserCrop, error)
	ListActive(ctx context.Context) ([]store.UserCrop, error)
	ByUser(ctx context.Context, userID uint) ([]store.UserCrop, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type PriceRepo interface {
	Record(ctx context.Context, price *store.MarketPrice) error
	Latest(ctx context.Context, crop, location string) (*store.MarketPrice, error)
	History(ctx context.Context, crop, location string, since time.Time) ([]domain.PricePoint, error)
}

type NotificationReader interface {
	ByAlert(ctx context.Context, alertID uint) ([]store.NotificationLog, error)
}

type Geocoder interface {
	Locate(ctx context.Context, query string) (geocode.Place, error)
}

// WeatherProvider supplies current conditions for crop recommendations.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (domain.WeatherSample, error)
}

// ResponseCache caches hot GET responses. Implementations treat outages as
// misses.
type ResponseCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Deps bundles everything the router needs. Cache, Ready, Geocoder and
// Weather are optional; missing ones disable the corresponding behavior.
type Deps struct {
	Alerts        AlertReader
	Checks        CheckRunner
	Advisories    Advisor
	Disasters     DisasterReader
	Users         UserRepo
	Crops         CropRepo
	Prices        PriceRepo
	Notifications NotificationReader
	Geocoder      Geocoder
	Weather       WeatherProvider
	Catalog       *domain.Catalog
	Cache         ResponseCache
	Ready         ReadinessChecker
}
