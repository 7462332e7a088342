package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Arkie13/agrialert/internal/domain"
)

// PriceStore is the gorm-backed market price repository.
type PriceStore struct {
	db *gorm.DB
}

func NewPriceStore(db *gorm.DB) *PriceStore {
	return &PriceStore{db: db}
}

// Record upserts one (crop, location, date) price row.
func (s *PriceStore) Record(ctx context.Context, price *MarketPrice) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "crop_name"}, {Name: "location"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"price_per_kg", "source", "accuracy", "demand_level"}),
		}).
		Create(price).Error
	if err != nil {
		return fmt.Errorf("recording price: %w", err)
	}
	return nil
}

// Latest returns the newest price row for a crop at a location, or nil when
// none has ever been recorded.
func (s *PriceStore) Latest(ctx context.Context, crop, location string) (*MarketPrice, error) {
	var price MarketPrice
	err := s.db.WithContext(ctx).
		Where("crop_name = ? AND location = ?", crop, location).
		Order("date DESC").
		First(&price).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("querying latest price: %w", err)
	}
	return &price, nil
}

// History returns a crop's price points at a location since the cutoff,
// oldest first, in the shape the trend fitter consumes.
func (s *PriceStore) History(ctx context.Context, crop, location string, since time.Time) ([]domain.PricePoint, error) {
	var rows []MarketPrice
	err := s.db.WithContext(ctx).
		Where("crop_name = ? AND location = ? AND date >= ?", crop, location, since).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying price history: %w", err)
	}
	points := make([]domain.PricePoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.PricePoint{Date: r.Date, PricePerKg: r.PricePerKg})
	}
	return points, nil
}
