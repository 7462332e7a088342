// Command agricheck runs one platform operation from the command line and
// prints the result as JSON. It wires the same services the API serves, so
// a cron job or an operator shell can trigger checks without going through
// HTTP.
//
// Usage:
//
//	agricheck -op check
//	agricheck -op locate -lat 13.14 -lng 123.74 -days 5
//	agricheck -op prescribe -crop-id 12
//	agricheck -op prescribe -user-id 3
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Arkie13/agrialert/internal/adapter/price"
	"github.com/Arkie13/agrialert/internal/adapter/weatherapi"
	"github.com/Arkie13/agrialert/internal/config"
	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/service"
	"github.com/Arkie13/agrialert/internal/store"
)

func main() {
	op := flag.String("op", "", "operation: check, locate, or prescribe")
	cropID := flag.Uint("crop-id", 0, "crop id for -op prescribe")
	userID := flag.Uint("user-id", 0, "user id for -op prescribe")
	lat := flag.Float64("lat", 0, "extra probe latitude for -op locate")
	lng := flag.Float64("lng", 0, "extra probe longitude for -op locate")
	days := flag.Int("days", 0, "forecast horizon for -op locate, 0 for default")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	if *op == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*op, uint(*cropID), uint(*userID), *lat, *lng, *days, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(op string, cropID, userID uint, lat, lng float64, days int, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.DatabaseDSN, cfg.DBDebug)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	alertStore := store.NewAlertStore(db)
	cropStore := store.NewCropStore(db)
	userStore := store.NewUserStore(db)
	disasterStore := store.NewDisasterStore(db)
	weatherStore := store.NewWeatherStore(db)
	priceStore := store.NewPriceStore(db)

	weather := weatherapi.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, logger, metrics)
	prices := price.NewClient(cfg.PriceBaseURL, cfg.PriceTimeout, priceStore, logger, metrics)

	catalog := domain.NewCatalog()
	alerts := service.NewAlertService(alertStore, nil, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result any
	switch op {
	case "check":
		checks := service.NewCheckService(cropStore, userStore, weather, weatherStore, alerts, catalog, logger, metrics)
		result, err = checks.RunWeatherCheck(ctx)
	case "locate":
		disasters := service.NewDisasterService(disasterStore, userStore, weather, alerts, logger, metrics)
		result, err = disasters.LocateTyphoons(ctx, lat, lng, days)
	case "prescribe":
		advisories := service.NewAdvisoryService(cropStore, userStore, weather, prices, priceStore, catalog, logger)
		switch {
		case cropID != 0:
			result, err = advisories.Prescribe(ctx, cropID)
		case userID != 0:
			result, err = advisories.PrescribeForUser(ctx, userID)
		default:
			return fmt.Errorf("-op prescribe needs -crop-id or -user-id")
		}
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
