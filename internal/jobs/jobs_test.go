package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/service"
)

type fakeVisits struct {
	visits  []*model.Visit
	denyErr error
}

func (f *fakeVisits) ListApprovedArrivingBetween(_ context.Context, start, end time.Time) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
		if v.IsApproved() && !v.ExpectedArrivalTime.Before(start) && v.ExpectedArrivalTime.Before(end) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVisits) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
		if v.IsPending() && v.VisitDate.Before(cutoff) {
			out = append(out, v)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeVisits) Deny(_ context.Context, id, approverID, reason string, now time.Time) error {
	if f.denyErr != nil {
		return f.denyErr
	}
	for _, v := range f.visits {
		if v.ID == id {
			if !v.IsPending() {
				return repository.ErrConflict
			}
			v.Status = model.VisitStatusDenied
			v.DenialReason = &reason
			v.ApprovedBy = &approverID
			v.ApprovedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeVisits) CountInDateRange(_ context.Context, start, end time.Time) (int, error) {
	n := 0
	for _, v := range f.visits {
		if !v.VisitDate.Before(start) && v.VisitDate.Before(end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeVisits) CountByStatus(_ context.Context, status string) (int, error) {
	n := 0
	for _, v := range f.visits {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeCheckIns struct{ count int }

func (f fakeCheckIns) CountInRange(context.Context, time.Time, time.Time) (int, error) {
	return f.count, nil
}

type fakeAdmins struct{ admins []*model.Admin }

func (f fakeAdmins) ListActive(context.Context) ([]*model.Admin, error) { return f.admins, nil }

// fakeJanitor returns a scripted sequence of deleted-row counts.
type fakeJanitor struct {
	pages []int64
	calls int
}

func (f *fakeJanitor) next() int64 {
	if f.calls >= len(f.pages) {
		return 0
	}
	n := f.pages[f.calls]
	f.calls++
	return n
}

func (f *fakeJanitor) DeleteReadBefore(context.Context, time.Time, int) (int64, error) {
	return f.next(), nil
}

func (f *fakeJanitor) DeleteBefore(context.Context, time.Time, int) (int64, error) {
	return f.next(), nil
}

type notifyCall struct {
	userID, title, body, typ, visitID string
}

type fakeNotifier struct{ calls []notifyCall }

func (f *fakeNotifier) Notify(_ context.Context, userID, title, body, typ, relatedVisitID string) (service.DeliveryResult, error) {
	f.calls = append(f.calls, notifyCall{userID, title, body, typ, relatedVisitID})
	return service.Delivered, nil
}

func newTestScheduler(visits *fakeVisits, admins []*model.Admin, notifs, activity *fakeJanitor, n *fakeNotifier, now time.Time) *Scheduler {
	if notifs == nil {
		notifs = &fakeJanitor{}
	}
	if activity == nil {
		activity = &fakeJanitor{}
	}
	s := NewScheduler(visits, fakeCheckIns{count: 4}, fakeAdmins{admins: admins}, notifs, activity, n)
	s.now = func() time.Time { return now }
	return s
}

func TestAutoExpireDeniesStalePendingVisits(t *testing.T) {
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	stale := &model.Visit{
		ID:        "v1",
		VisitorID: "visitor-1",
		VisitDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:    model.VisitStatusPending,
	}
	today := &model.Visit{
		ID:        "v2",
		VisitorID: "visitor-2",
		VisitDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Status:    model.VisitStatusPending,
	}
	visits := &fakeVisits{visits: []*model.Visit{stale, today}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(visits, nil, nil, nil, notifier, now)

	require.NoError(t, s.RunAutoExpire(context.Background()))

	assert.Equal(t, model.VisitStatusDenied, stale.Status)
	require.NotNil(t, stale.DenialReason)
	assert.Equal(t, "Visit request expired - scheduled date has passed", *stale.DenialReason)
	require.NotNil(t, stale.ApprovedBy)
	assert.Equal(t, "system", *stale.ApprovedBy)

	assert.Equal(t, model.VisitStatusPending, today.Status, "today's visit is not stale")

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "visitor-1", notifier.calls[0].userID)
	assert.Equal(t, model.NotificationVisitDenied, notifier.calls[0].typ)
}

func TestAutoExpireAbortsAfterFullPageWithoutProgress(t *testing.T) {
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	past := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	stale := make([]*model.Visit, pageSize)
	for i := range stale {
		stale[i] = &model.Visit{
			ID:        fmt.Sprintf("v%d", i),
			VisitorID: "visitor-1",
			Status:    model.VisitStatusPending,
			VisitDate: past,
		}
	}
	visits := &fakeVisits{visits: stale, denyErr: errors.New("write timeout")}
	s := newTestScheduler(visits, nil, nil, nil, &fakeNotifier{}, now)

	err := s.RunAutoExpire(context.Background())
	require.Error(t, err, "a full page that cannot transition must not refetch forever")
	for _, v := range stale {
		assert.Equal(t, model.VisitStatusPending, v.Status)
	}
}

func TestRemindersTargetTheUpcomingWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	inWindow := &model.Visit{
		ID:                  "v1",
		VisitorID:           "visitor-1",
		HostName:            "Grace Hopper",
		Status:              model.VisitStatusApproved,
		ExpectedArrivalTime: now.Add(2*time.Hour + 5*time.Minute),
	}
	tooSoon := &model.Visit{
		ID:                  "v2",
		VisitorID:           "visitor-2",
		Status:              model.VisitStatusApproved,
		ExpectedArrivalTime: now.Add(30 * time.Minute),
	}
	tooLate := &model.Visit{
		ID:                  "v3",
		VisitorID:           "visitor-3",
		Status:              model.VisitStatusApproved,
		ExpectedArrivalTime: now.Add(3 * time.Hour),
	}
	visits := &fakeVisits{visits: []*model.Visit{inWindow, tooSoon, tooLate}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(visits, nil, nil, nil, notifier, now)

	require.NoError(t, s.RunReminders(context.Background()))

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "visitor-1", notifier.calls[0].userID)
	assert.Equal(t, model.NotificationVisitReminder, notifier.calls[0].typ)
	assert.Equal(t, "v1", notifier.calls[0].visitID)
}

func TestDailySummarySkipsTokenlessAdmins(t *testing.T) {
	now := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	token := "device-token"
	admins := []*model.Admin{
		{ID: "admin-1", PushToken: &token},
		{ID: "admin-2"}, // no token registered
	}
	visits := &fakeVisits{visits: []*model.Visit{
		{ID: "v1", VisitDate: now.Truncate(24 * time.Hour), Status: model.VisitStatusPending},
	}}
	notifier := &fakeNotifier{}
	s := newTestScheduler(visits, admins, nil, nil, notifier, now)

	require.NoError(t, s.RunDailySummary(context.Background()))

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "admin-1", notifier.calls[0].userID)
	assert.Equal(t, model.NotificationDailySummary, notifier.calls[0].typ)
	assert.Equal(t, "Today: 1 visits, 4 check-ins, 1 pending approvals", notifier.calls[0].body)
}

func TestCleanupDrainsFullPages(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	notifs := &fakeJanitor{pages: []int64{pageSize, pageSize, 120}}
	activity := &fakeJanitor{pages: []int64{40}}
	s := newTestScheduler(&fakeVisits{}, nil, notifs, activity, &fakeNotifier{}, now)

	require.NoError(t, s.RunNotificationCleanup(context.Background()))
	assert.Equal(t, 3, notifs.calls, "full pages keep the loop going")

	require.NoError(t, s.RunActivityLogCleanup(context.Background()))
	assert.Equal(t, 1, activity.calls, "short first page ends the loop")
}
