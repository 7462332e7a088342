package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CropStore is the gorm-backed planting repository.
type CropStore struct {
	db *gorm.DB
}

func NewCropStore(db *gorm.DB) *CropStore {
	return &CropStore{db: db}
}

// Create records a new planting.
func (s *CropStore) Create(ctx context.Context, crop *UserCrop) error {
	if crop.Status == "" {
		crop.Status = CropPlanted
	}
	if err := s.db.WithContext(ctx).Create(crop).Error; err != nil {
		return fmt.Errorf("creating crop: %w", err)
	}
	return nil
}

// ByID fetches one planting.
func (s *CropStore) ByID(ctx context.Context, id uint) (*UserCrop, error) {
	var crop UserCrop
	if err := s.db.WithContext(ctx).First(&crop, id).Error; err != nil {
		return nil, fmt.Errorf("fetching crop %d: %w", id, err)
	}
	return &crop, nil
}

// ListActive returns plantings still in the ground, the set the weather
// check walks.
func (s *CropStore) ListActive(ctx context.Context) ([]UserCrop, error) {
	var crops []UserCrop
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{CropPlanted, CropGrowing, CropHarvesting}).
		Order("id").
		Find(&crops).Error
	if err != nil {
		return nil, fmt.Errorf("listing active crops: %w", err)
	}
	return crops, nil
}

// ByUser returns all plantings belonging to a user, newest first.
func (s *CropStore) ByUser(ctx context.Context, userID uint) ([]UserCrop, error) {
	var crops []UserCrop
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&crops).Error
	if err != nil {
		return nil, fmt.Errorf("listing crops for user %d: %w", userID, err)
	}
	return crops, nil
}

// UpdateStatus moves a planting through its lifecycle.
func (s *CropStore) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := s.db.WithContext(ctx).Model(&UserCrop{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("updating crop %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("updating crop %d status: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes a planting.
func (s *CropStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&UserCrop{}, id).Error; err != nil {
		return fmt.Errorf("deleting crop %d: %w", id, err)
	}
	return nil
}
