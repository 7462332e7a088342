package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

// fakeAlertRepo is an in-memory AlertRepo.
type fakeAlertRepo struct {
	alerts    []store.Alert
	links     map[uint]map[uint]int // alertID -> userID -> link count
	nextID    uint
	failQuery error
	failWrite error
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{links: make(map[uint]map[uint]int), nextID: 1}
}

func (f *fakeAlertRepo) RecentExists(_ context.Context, alertType, prefix string, since time.Time) (bool, error) {
	if f.failQuery != nil {
		return false, f.failQuery
	}
	for _, a := range f.alerts {
		if a.Type == alertType && strings.HasPrefix(a.Description, prefix) && !a.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) Insert(_ context.Context, alert *store.Alert) (bool, error) {
	if f.failWrite != nil {
		return false, f.failWrite
	}
	for _, a := range f.alerts {
		if a.DedupKey == alert.DedupKey {
			return false, nil
		}
	}
	alert.ID = f.nextID
	f.nextID++
	f.alerts = append(f.alerts, *alert)
	return true, nil
}

func (f *fakeAlertRepo) ResolveActiveBefore(_ context.Context, cutoff, resolvedAt time.Time) (int64, error) {
	if f.failQuery != nil {
		return 0, f.failQuery
	}
	var n int64
	for i := range f.alerts {
		if f.alerts[i].Status == store.AlertActive && f.alerts[i].CreatedAt.Before(cutoff) {
			f.alerts[i].Status = store.AlertResolved
			t := resolvedAt
			f.alerts[i].ResolvedAt = &t
			n++
		}
	}
	return n, nil
}

func (f *fakeAlertRepo) List(_ context.Context, status string, before *time.Time, limit int) ([]store.Alert, error) {
	var out []store.Alert
	for _, a := range f.alerts {
		if status != "" && a.Status != status {
			continue
		}
		if before != nil && !a.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, a)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAlertRepo) ByID(_ context.Context, id uint) (*store.Alert, error) {
	for _, a := range f.alerts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAlertRepo) LinkUser(_ context.Context, alertID, userID uint) error {
	if f.links[alertID] == nil {
		f.links[alertID] = make(map[uint]int)
	}
	f.links[alertID][userID]++
	return nil
}

func (f *fakeAlertRepo) LinkedUsers(_ context.Context, alertID uint) ([]store.User, error) {
	var users []store.User
	for userID := range f.links[alertID] {
		users = append(users, store.User{ID: userID, Email: "farmer@example.com"})
	}
	return users, nil
}

// fakeNotifier records delivered alerts.
type fakeNotifier struct {
	delivered []store.Alert
}

func (f *fakeNotifier) NotifyAlert(_ context.Context, alert store.Alert, _ []store.User) {
	f.delivered = append(f.delivered, alert)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func freezeAt(t *testing.T, at time.Time) *clockwork.FakeClock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(at)
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })
	return fake
}

func newAlertService(repo AlertRepo, notifier Notifier) *AlertService {
	return NewAlertService(repo, notifier, discardLogger(), observability.NewMetricsForTesting())
}

func TestRaiseDeduplicatesWithinWindow(t *testing.T) {
	fake := freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	svc := newAlertService(repo, nil)

	in := RaiseInput{
		Type:        "typhoon",
		Severity:    domain.SeverityHigh,
		Description: "Typhoon risk for rice in Nueva Ecija: sustained winds 80 km/h expected",
	}

	first := svc.Raise(context.Background(), in)
	require.Equal(t, AlertCreated, first.Outcome)
	require.NotNil(t, first.Alert)
	assert.Equal(t, "high", first.Alert.Severity)

	// Same condition an hour later is suppressed.
	fake.Advance(time.Hour)
	second := svc.Raise(context.Background(), in)
	assert.Equal(t, AlertSuppressed, second.Outcome)
	assert.Len(t, repo.alerts, 1)

	// Past the 24h window a fresh alert is recorded.
	fake.Advance(24 * time.Hour)
	third := svc.Raise(context.Background(), in)
	assert.Equal(t, AlertCreated, third.Outcome)
	assert.Len(t, repo.alerts, 2)
}

func TestRaiseMatchesOnDescriptionPrefix(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	svc := newAlertService(repo, nil)

	base := strings.Repeat("x", 50)
	first := svc.Raise(context.Background(), RaiseInput{
		Type: "flood", Severity: domain.SeverityHigh,
		Description: base + " tail one",
	})
	require.Equal(t, AlertCreated, first.Outcome)

	// Identical 50-char prefix with a different tail is the same condition.
	second := svc.Raise(context.Background(), RaiseInput{
		Type: "flood", Severity: domain.SeverityHigh,
		Description: base + " tail two",
	})
	assert.Equal(t, AlertSuppressed, second.Outcome)

	// A different type with the same description is a different condition.
	third := svc.Raise(context.Background(), RaiseInput{
		Type: "wind", Severity: domain.SeverityMedium,
		Description: base + " tail one",
	})
	assert.Equal(t, AlertCreated, third.Outcome)
}

func TestRaiseQueryFailureIsNotRecorded(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	repo.failQuery = errors.New("connection refused")
	svc := newAlertService(repo, nil)

	res := svc.Raise(context.Background(), RaiseInput{
		Type: "drought", Severity: domain.SeverityMedium, Description: "dry spell",
	})
	assert.Equal(t, AlertNotRecorded, res.Outcome)
	assert.Empty(t, repo.alerts)
}

func TestRaiseInsertFailureIsNotRecorded(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	repo.failWrite = errors.New("deadlock detected")
	svc := newAlertService(repo, nil)

	res := svc.Raise(context.Background(), RaiseInput{
		Type: "drought", Severity: domain.SeverityMedium, Description: "dry spell",
	})
	assert.Equal(t, AlertNotRecorded, res.Outcome)
}

func TestRaiseLinksAndNotifies(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	notifier := &fakeNotifier{}
	svc := newAlertService(repo, notifier)

	res := svc.Raise(context.Background(), RaiseInput{
		Type: "typhoon", Severity: domain.SeverityCritical,
		Description: "Super Typhoon approaching",
		UserIDs:     []uint{7, 9},
	})
	require.Equal(t, AlertCreated, res.Outcome)

	assert.Equal(t, 1, repo.links[res.Alert.ID][7])
	assert.Equal(t, 1, repo.links[res.Alert.ID][9])
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, res.Alert.ID, notifier.delivered[0].ID)
}

func TestLinkIsIdempotent(t *testing.T) {
	freezeAt(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repo := newFakeAlertRepo()
	svc := newAlertService(repo, nil)

	res := svc.Raise(context.Background(), RaiseInput{
		Type: "wind", Severity: domain.SeverityMedium,
		Description: "strong winds", UserIDs: []uint{3},
	})
	require.Equal(t, AlertCreated, res.Outcome)

	// Re-linking the same user must not error and produces one association
	// at the store level (the fake counts attempts, the real store upserts).
	require.NoError(t, svc.Link(context.Background(), res.Alert.ID, 3))
	assert.Equal(t, 2, repo.links[res.Alert.ID][3])
}

func TestSweepResolvesOnlyStaleActives(t *testing.T) {
	now := time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)
	freezeAt(t, now)
	repo := newFakeAlertRepo()
	svc := newAlertService(repo, nil)

	repo.alerts = []store.Alert{
		{ID: 1, Type: "typhoon", Status: store.AlertActive, CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: 2, Type: "flood", Status: store.AlertActive, CreatedAt: now.Add(-6 * 24 * time.Hour)},
		{ID: 3, Type: "wind", Status: store.AlertResolved, CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	active, err := svc.List(context.Background(), store.AlertActive, nil, 0)
	require.NoError(t, err)

	require.Len(t, active, 1)
	assert.Equal(t, uint(2), active[0].ID)

	assert.Equal(t, store.AlertResolved, repo.alerts[0].Status)
	require.NotNil(t, repo.alerts[0].ResolvedAt)
	assert.Equal(t, now, *repo.alerts[0].ResolvedAt)
}

func TestSweepExactBoundaryStaysActive(t *testing.T) {
	now := time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)
	freezeAt(t, now)
	repo := newFakeAlertRepo()
	svc := newAlertService(repo, nil)

	// Created exactly 7 days ago: not strictly older than the window.
	repo.alerts = []store.Alert{
		{ID: 1, Type: "typhoon", Status: store.AlertActive, CreatedAt: now.Add(-7 * 24 * time.Hour)},
	}

	active, err := svc.List(context.Background(), store.AlertActive, nil, 0)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
