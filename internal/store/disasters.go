package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DisasterStore is the gorm-backed disaster repository.
type DisasterStore struct {
	db *gorm.DB
}

func NewDisasterStore(db *gorm.DB) *DisasterStore {
	return &DisasterStore{db: db}
}

// CandidateKey is the (date, rounded center) aggregation key a located
// candidate upserts on.
func CandidateKey(date time.Time, lat, lng float64) string {
	return fmt.Sprintf("%s|%.2f|%.2f", date.UTC().Format("2006-01-02"), lat, lng)
}

// Upsert creates the disaster or, when a row with the same candidate key
// exists, refreshes it with the stronger detection. Returns created=true on
// a fresh row.
func (s *DisasterStore) Upsert(ctx context.Context, d *Disaster) (bool, error) {
	if d.PublicID == "" {
		d.PublicID = uuid.NewString()
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "type", "severity", "status",
				"affected_radius_km", "wind_speed", "updated_at",
			}),
		}).
		Create(d)
	if res.Error != nil {
		return false, fmt.Errorf("upserting disaster: %w", res.Error)
	}
	// On conflict the insert id is not populated; fetch the surviving row so
	// callers hold the real primary key.
	if d.ID == 0 {
		var existing Disaster
		if err := s.db.WithContext(ctx).Where("candidate_key = ?", d.CandidateKey).First(&existing).Error; err != nil {
			return false, fmt.Errorf("fetching upserted disaster: %w", err)
		}
		*d = existing
		return false, nil
	}
	return true, nil
}

// List returns disasters, optionally filtered by status, active first then
// newest.
func (s *DisasterStore) List(ctx context.Context, status string) ([]Disaster, error) {
	q := s.db.WithContext(ctx).Model(&Disaster{}).
		Order("CASE status WHEN 'active' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END, start_date DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []Disaster
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing disasters: %w", err)
	}
	return out, nil
}

// ByPublicID fetches one disaster by its external identifier.
func (s *DisasterStore) ByPublicID(ctx context.Context, publicID string) (*Disaster, error) {
	var d Disaster
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&d).Error; err != nil {
		return nil, fmt.Errorf("fetching disaster %s: %w", publicID, err)
	}
	return &d, nil
}

// ReplaceZones swaps a disaster's boundary ring for a fresh one.
func (s *DisasterStore) ReplaceZones(ctx context.Context, disasterID uint, zones []DisasterZone) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("disaster_id = ?", disasterID).Delete(&DisasterZone{}).Error; err != nil {
			return fmt.Errorf("clearing zones for disaster %d: %w", disasterID, err)
		}
		if len(zones) == 0 {
			return nil
		}
		for i := range zones {
			zones[i].DisasterID = disasterID
		}
		if err := tx.Create(&zones).Error; err != nil {
			return fmt.Errorf("inserting zones for disaster %d: %w", disasterID, err)
		}
		return nil
	})
}

// Zones returns a disaster's boundary points.
func (s *DisasterStore) Zones(ctx context.Context, disasterID uint) ([]DisasterZone, error) {
	var zones []DisasterZone
	if err := s.db.WithContext(ctx).Where("disaster_id = ?", disasterID).Order("id").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("listing zones for disaster %d: %w", disasterID, err)
	}
	return zones, nil
}

// ResolvePassed flips warning/active disasters whose start date is older
// than cutoff to resolved.
func (s *DisasterStore) ResolvePassed(ctx context.Context, cutoff, endDate time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Disaster{}).
		Where("status IN ? AND start_date < ?", []string{DisasterWarning, DisasterActive}, cutoff).
		Updates(map[string]any{"status": DisasterResolved, "end_date": endDate})
	if res.Error != nil {
		return 0, fmt.Errorf("resolving passed disasters: %w", res.Error)
	}
	return res.RowsAffected, nil
}
