package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arkie13/agrialert/internal/adapter/cache"
	"github.com/Arkie13/agrialert/internal/adapter/geocode"
	"github.com/Arkie13/agrialert/internal/adapter/httpapi"
	kafkaadapter "github.com/Arkie13/agrialert/internal/adapter/kafka"
	"github.com/Arkie13/agrialert/internal/adapter/price"
	"github.com/Arkie13/agrialert/internal/adapter/smtpmail"
	"github.com/Arkie13/agrialert/internal/adapter/weatherapi"
	"github.com/Arkie13/agrialert/internal/config"
	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/ingest"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/service"
	"github.com/Arkie13/agrialert/internal/store"
)

// fanoutNotifier delivers an alert through every configured channel.
type fanoutNotifier struct {
	notifiers []service.Notifier
}

func (f *fanoutNotifier) NotifyAlert(ctx context.Context, alert store.Alert, users []store.User) {
	for _, n := range f.notifiers {
		n.NotifyAlert(ctx, alert, users)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.DatabaseDSN, cfg.DBDebug)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	alertStore := store.NewAlertStore(db)
	cropStore := store.NewCropStore(db)
	userStore := store.NewUserStore(db)
	disasterStore := store.NewDisasterStore(db)
	weatherStore := store.NewWeatherStore(db)
	priceStore := store.NewPriceStore(db)
	notificationStore := store.NewNotificationStore(db)

	// Redis is optional: caches degrade to pass-through when it is away.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "error", err)
		rdb = nil
	}
	cancelPing()

	weatherClient := weatherapi.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, logger, metrics)
	var weather service.WeatherProvider = weatherClient
	if rdb != nil {
		weather = cache.NewWeatherCache(weatherClient, rdb, cfg.CacheTTL, logger, metrics)
	}

	geocoder := geocode.NewCachedLocator(
		geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, logger, metrics),
		cfg.GeocodeCacheSize,
	)

	prices := price.NewClient(cfg.PriceBaseURL, cfg.PriceTimeout, priceStore, logger, metrics)

	var notifiers []service.Notifier
	if cfg.SMTPEnabled {
		notifiers = append(notifiers, smtpmail.NewNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom,
			notificationStore, logger, metrics,
		))
		logger.Info("smtp notifications enabled", "host", cfg.SMTPHost)
	}
	var alertPublisher *kafkaadapter.AlertPublisher
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic != "" {
		alertPublisher = kafkaadapter.NewAlertPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		notifiers = append(notifiers, alertPublisher)
	}
	var notifier service.Notifier
	if len(notifiers) > 0 {
		notifier = &fanoutNotifier{notifiers: notifiers}
	}

	catalog := domain.NewCatalog()
	alerts := service.NewAlertService(alertStore, notifier, logger, metrics)
	checks := service.NewCheckService(cropStore, userStore, weather, weatherStore, alerts, catalog, logger, metrics)
	advisories := service.NewAdvisoryService(cropStore, userStore, weather, prices, priceStore, catalog, logger)
	disasters := service.NewDisasterService(disasterStore, userStore, weather, alerts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := httpapi.Deps{
		Alerts:        alerts,
		Checks:        checks,
		Advisories:    advisories,
		Disasters:     disasters,
		Users:         userStore,
		Crops:         cropStore,
		Prices:        priceStore,
		Notifications: notificationStore,
		Geocoder:      geocoder,
		Weather:       weather,
		Catalog:       catalog,
		Cache:         cache.NewResponseCache(rdb, logger),
	}

	// Observation ingest is feature-flagged; the API serves fine without it,
	// falling back to provider forecasts for history-less locations.
	var reader *kafkaadapter.Reader
	if cfg.IngestEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		pipeline := ingest.New(reader, weatherStore, logger, metrics, cfg.BatchSize)
		deps.Ready = pipeline
		go func() {
			if err := pipeline.Run(ctx); err != nil {
				logger.Error("ingest pipeline error", "error", err)
			}
		}()
		logger.Info("observation ingest enabled",
			"topic", cfg.KafkaIngestTopic, "group", cfg.KafkaGroupID)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, cfg.AllowedOrigins, deps, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if alertPublisher != nil {
		if err := alertPublisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
