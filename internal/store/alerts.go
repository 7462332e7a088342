package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertStore is the gorm-backed alert repository.
type AlertStore struct {
	db *gorm.DB
}

func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

// DedupKey hashes the alert type, the first 50 characters of the
// description and the calendar day into the unique-index backstop used by
// Insert. The sliding 24-hour suppression window lives in the service; this
// key only has to catch same-day inserts that race past it.
func DedupKey(alertType, description string, day time.Time) string {
	prefix := description
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", alertType, prefix, day.UTC().Format("2006-01-02"))))
	return hex.EncodeToString(sum[:16])
}

// RecentExists reports whether an alert of the given type whose description
// starts with prefix was created at or after since.
func (s *AlertStore) RecentExists(ctx context.Context, alertType, prefix string, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Alert{}).
		Where("type = ? AND description LIKE ? AND created_at >= ?", alertType, prefix+"%", since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("querying recent alerts: %w", err)
	}
	return count > 0, nil
}

// Insert creates the alert, reporting created=false when the dedup key
// already exists.
func (s *AlertStore) Insert(ctx context.Context, alert *Alert) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedup_key"}}, DoNothing: true}).
		Create(alert)
	if res.Error != nil {
		return false, fmt.Errorf("inserting alert: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ResolveActiveBefore flips active alerts created before cutoff to resolved
// and returns how many were swept.
func (s *AlertStore) ResolveActiveBefore(ctx context.Context, cutoff, resolvedAt time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Alert{}).
		Where("status = ? AND created_at < ?", AlertActive, cutoff).
		Updates(map[string]any{"status": AlertResolved, "resolved_at": resolvedAt})
	if res.Error != nil {
		return 0, fmt.Errorf("resolving stale alerts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// List returns alerts newest first, optionally filtered by status. A non-nil
// before cursor keeps only alerts created strictly earlier, which is what
// the API's keyset pagination walks on.
func (s *AlertStore) List(ctx context.Context, status string, before *time.Time, limit int) ([]Alert, error) {
	q := s.db.WithContext(ctx).Model(&Alert{}).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var alerts []Alert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// ByID fetches one alert.
func (s *AlertStore) ByID(ctx context.Context, id uint) (*Alert, error) {
	var alert Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, fmt.Errorf("fetching alert %d: %w", id, err)
	}
	return &alert, nil
}

// LinkUser attaches a user to an alert. Upsert on the composite key keeps
// the call idempotent.
func (s *AlertStore) LinkUser(ctx context.Context, alertID, userID uint) error {
	link := AlertFarmer{AlertID: alertID, UserID: userID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alert_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{"updated_at": gorm.Expr("CURRENT_TIMESTAMP")}),
		}).
		Create(&link).Error
	if err != nil {
		return fmt.Errorf("linking user %d to alert %d: %w", userID, alertID, err)
	}
	return nil
}

// LinkedUsers returns users attached to an alert.
func (s *AlertStore) LinkedUsers(ctx context.Context, alertID uint) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).
		Joins("JOIN alert_farmers af ON af.user_id = users.id").
		Where("af.alert_id = ?", alertID).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("listing users for alert %d: %w", alertID, err)
	}
	return users, nil
}
