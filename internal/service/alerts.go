// Package service orchestrates the platform's operations: raising and
// deduplicating alerts, running the scheduled weather check, producing
// harvest advisories, and locating storm systems. Services declare the
// repository and provider interfaces they consume, so stores and adapters
// stay swappable in tests.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

// Alert dedup and lifecycle windows.
const (
	dedupWindow    = 24 * time.Hour
	staleAfter     = 7 * 24 * time.Hour
	dedupPrefixLen = 50
)

// AlertRepo is the persistence surface AlertService needs.
type AlertRepo interface {
	RecentExists(ctx context.Context, alertType, prefix string, since time.Time) (bool, error)
	Insert(ctx context.Context, alert *store.Alert) (bool, error)
	ResolveActiveBefore(ctx context.Context, cutoff, resolvedAt time.Time) (int64, error)
	List(ctx context.Context, status string, before *time.Time, limit int) ([]store.Alert, error)
	ByID(ctx context.Context, id uint) (*store.Alert, error)
	LinkUser(ctx context.Context, alertID, userID uint) error
	LinkedUsers(ctx context.Context, alertID uint) ([]store.User, error)
}

// Notifier delivers an alert to a set of users. Implementations must be safe
// to call with an empty slice.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert store.Alert, users []store.User)
}

// RaiseOutcome is the result of an attempt to raise an alert.
type RaiseOutcome int

const (
	// AlertCreated means a new alert row was recorded.
	AlertCreated RaiseOutcome = iota
	// AlertSuppressed means an equivalent alert already existed inside the
	// dedup window, so nothing was recorded.
	AlertSuppressed
	// AlertNotRecorded means persistence failed; the failure is logged and
	// the surrounding check continues.
	AlertNotRecorded
)

// RaiseInput describes one alert to raise. Severity must already be derived
// from the triggering measurement.
type RaiseInput struct {
	Type        string
	Severity    domain.Severity
	Description string
	UserIDs     []uint
	DisasterID  *uint
}

// RaiseResult reports what happened. Alert is set only when Outcome is
// AlertCreated.
type RaiseResult struct {
	Outcome RaiseOutcome
	Alert   *store.Alert
}

// AlertService owns alert dedup, lifecycle, and user linking.
//
// The mutex serializes the check-then-insert in Raise, so two concurrent
// evaluations of the same condition cannot both pass the duplicate check.
// The dedup_key unique index backstops other processes.
type AlertService struct {
	repo     AlertRepo
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu sync.Mutex
}

func NewAlertService(repo AlertRepo, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *AlertService {
	return &AlertService{repo: repo, notifier: notifier, logger: logger, metrics: metrics}
}

func dedupPrefix(description string) string {
	if len(description) > dedupPrefixLen {
		return description[:dedupPrefixLen]
	}
	return description
}

// Raise records an alert unless an equivalent one (same type, same
// description prefix) was created inside the dedup window. Persistence
// failures are logged and reported as AlertNotRecorded; they never abort the
// caller's run.
func (s *AlertService) Raise(ctx context.Context, in RaiseInput) RaiseResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := domain.Now()
	prefix := dedupPrefix(in.Description)

	exists, err := s.repo.RecentExists(ctx, in.Type, prefix, now.Add(-dedupWindow))
	if err != nil {
		s.logger.Error("alert dedup check failed", "type", in.Type, "error", err)
		return RaiseResult{Outcome: AlertNotRecorded}
	}
	if exists {
		s.logger.Debug("alert suppressed as duplicate", "type", in.Type)
		s.metrics.AlertsSuppressed.WithLabelValues(in.Type).Inc()
		return RaiseResult{Outcome: AlertSuppressed}
	}

	alert := &store.Alert{
		Type:        in.Type,
		Severity:    in.Severity.String(),
		Description: in.Description,
		Status:      store.AlertActive,
		DedupKey:    store.DedupKey(in.Type, in.Description, now),
		DisasterID:  in.DisasterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.repo.Insert(ctx, alert)
	if err != nil {
		s.logger.Error("alert insert failed", "type", in.Type, "error", err)
		return RaiseResult{Outcome: AlertNotRecorded}
	}
	if !created {
		// Another process won the same-day race; treat it as a duplicate.
		s.metrics.AlertsSuppressed.WithLabelValues(in.Type).Inc()
		return RaiseResult{Outcome: AlertSuppressed}
	}

	s.metrics.AlertsCreated.WithLabelValues(in.Type).Inc()
	s.logger.Info("alert created",
		"alert_id", alert.ID, "type", in.Type, "severity", alert.Severity)

	s.linkUsers(ctx, alert.ID, in.UserIDs)
	s.notify(ctx, *alert)

	return RaiseResult{Outcome: AlertCreated, Alert: alert}
}

// linkUsers attaches each affected user; a failed link is logged and skipped
// so the remaining users still get linked.
func (s *AlertService) linkUsers(ctx context.Context, alertID uint, userIDs []uint) {
	for _, userID := range userIDs {
		if err := s.repo.LinkUser(ctx, alertID, userID); err != nil {
			s.logger.Error("alert link failed", "alert_id", alertID, "user_id", userID, "error", err)
		}
	}
}

func (s *AlertService) notify(ctx context.Context, alert store.Alert) {
	if s.notifier == nil {
		return
	}
	users, err := s.repo.LinkedUsers(ctx, alert.ID)
	if err != nil {
		s.logger.Error("loading linked users failed", "alert_id", alert.ID, "error", err)
		return
	}
	s.notifier.NotifyAlert(ctx, alert, users)
}

// Link attaches a user to an existing alert, idempotently.
func (s *AlertService) Link(ctx context.Context, alertID, userID uint) error {
	return s.repo.LinkUser(ctx, alertID, userID)
}

// SweepStale resolves active alerts older than the staleness window. Called
// on read paths so the stored state converges without a dedicated scheduler.
func (s *AlertService) SweepStale(ctx context.Context) {
	now := domain.Now()
	n, err := s.repo.ResolveActiveBefore(ctx, now.Add(-staleAfter), now)
	if err != nil {
		s.logger.Error("stale alert sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.metrics.AlertsResolved.Add(float64(n))
		s.logger.Info("stale alerts resolved", "count", n)
	}
}

// List sweeps stale alerts, then returns alerts filtered by status, newest
// first. A non-nil before cursor restricts results to alerts created
// strictly earlier, for keyset pagination.
func (s *AlertService) List(ctx context.Context, status string, before *time.Time, limit int) ([]store.Alert, error) {
	s.SweepStale(ctx)
	return s.repo.List(ctx, status, before, limit)
}

// Get sweeps stale alerts, then fetches one alert.
func (s *AlertService) Get(ctx context.Context, id uint) (*store.Alert, error) {
	s.SweepStale(ctx)
	return s.repo.ByID(ctx, id)
}
