// Command seed populates the database with demo users, crops, and a month
// of market price history, enough to exercise the weather check and the
// harvest advisor against real endpoints.
//
// Usage:
//
//	seed -price-days 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/Arkie13/agrialert/internal/config"
	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/store"
)

type demoUser struct {
	name     string
	email    string
	location string
	lat, lng float64
	crops    []demoCrop
}

type demoCrop struct {
	name        string
	daysPlanted int
	areaHa      float64
}

var demoUsers = []demoUser{
	{
		name: "Maria Santos", email: "maria.santos@example.ph",
		location: "Cabanatuan, Nueva Ecija", lat: 15.4860, lng: 120.9660,
		crops: []demoCrop{
			{name: "rice", daysPlanted: 75, areaHa: 2.5},
			{name: "corn", daysPlanted: 30, areaHa: 1.0},
		},
	},
	{
		name: "Juan Reyes", email: "juan.reyes@example.ph",
		location: "Legazpi, Albay", lat: 13.1391, lng: 123.7438,
		crops: []demoCrop{
			{name: "rice", daysPlanted: 88, areaHa: 3.0},
		},
	},
	{
		name: "Ana Cruz", email: "ana.cruz@example.ph",
		location: "Davao City", lat: 7.1907, lng: 125.4553,
		crops: []demoCrop{
			{name: "banana", daysPlanted: 200, areaHa: 4.0},
			{name: "coconut", daysPlanted: 500, areaHa: 2.0},
		},
	},
}

var demoPrices = []struct {
	crop     string
	location string
	base     float64
}{
	{"rice", "Cabanatuan, Nueva Ecija", 22.0},
	{"rice", "Legazpi, Albay", 23.0},
	{"corn", "Cabanatuan, Nueva Ecija", 17.5},
	{"banana", "Davao City", 13.5},
}

func main() {
	priceDays := flag.Int("price-days", 30, "days of price history to generate")
	flag.Parse()

	if err := run(*priceDays); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(priceDays int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DatabaseDSN, cfg.DBDebug)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	ctx := context.Background()
	users := store.NewUserStore(db)
	crops := store.NewCropStore(db)
	prices := store.NewPriceStore(db)
	today := domain.Today()

	for _, du := range demoUsers {
		user := store.User{
			Name:     du.name,
			Email:    du.email,
			Location: du.location,
			Lat:      du.lat,
			Lng:      du.lng,
		}
		if err := users.Create(ctx, &user); err != nil {
			return fmt.Errorf("creating user %s: %w", du.email, err)
		}
		for _, dc := range du.crops {
			crop := store.UserCrop{
				UserID:       user.ID,
				CropName:     dc.name,
				PlantingDate: today.AddDate(0, 0, -dc.daysPlanted),
				AreaHectares: dc.areaHa,
				Status:       store.CropGrowing,
			}
			if err := crops.Create(ctx, &crop); err != nil {
				return fmt.Errorf("creating crop %s for %s: %w", dc.name, du.email, err)
			}
		}
		log.Printf("seeded user %s with %d crops", du.email, len(du.crops))
	}

	for _, dp := range demoPrices {
		for i := priceDays; i >= 0; i-- {
			date := today.AddDate(0, 0, -i)
			// Gentle upward drift plus a weekly wobble.
			value := dp.base * (1 + 0.002*float64(priceDays-i) + 0.01*math.Sin(float64(i)/7*2*math.Pi))
			row := store.MarketPrice{
				CropName:    dp.crop,
				Location:    dp.location,
				Date:        date,
				PricePerKg:  math.Round(value*100) / 100,
				Source:      "seed",
				Accuracy:    "medium",
				DemandLevel: "normal",
			}
			if err := prices.Record(ctx, &row); err != nil {
				return fmt.Errorf("recording price %s/%s on %s: %w",
					dp.crop, dp.location, date.Format(time.DateOnly), err)
			}
		}
		log.Printf("seeded %d price rows for %s in %s", priceDays+1, dp.crop, dp.location)
	}

	return nil
}
