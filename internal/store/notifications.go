package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// NotificationStore is the gorm-backed email audit log.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Record appends one send attempt to the audit log.
func (s *NotificationStore) Record(ctx context.Context, log *NotificationLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("recording notification: %w", err)
	}
	return nil
}

// AlreadyNotified reports whether a user was already successfully emailed
// for an alert.
func (s *NotificationStore) AlreadyNotified(ctx context.Context, alertID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&NotificationLog{}).
		Where("alert_id = ? AND user_id = ? AND status = ?", alertID, userID, "sent").
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("querying notification log: %w", err)
	}
	return count > 0, nil
}

// ByAlert returns the audit trail for one alert, oldest first.
func (s *NotificationStore) ByAlert(ctx context.Context, alertID uint) ([]NotificationLog, error) {
	var logs []NotificationLog
	if err := s.db.WithContext(ctx).Where("alert_id = ?", alertID).Order("sent_at").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("listing notifications for alert %d: %w", alertID, err)
	}
	return logs, nil
}
