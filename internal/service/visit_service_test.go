package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/queue"
	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/utils"
)

func pendingVisit(id string) *model.Visit {
	return &model.Visit{
		ID:          id,
		VisitorID:   "visitor-1",
		VisitorName: "Ada Lovelace",
		HostName:    "Grace Hopper",
		VisitDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:      model.VisitStatusPending,
	}
}

func newTestVisitService(store VisitStore, notifs *fakeNotifStore, pub *capturePublish) *VisitService {
	d := newTestDispatcher(notifs, &fakePusher{})
	return NewVisitService(store, d, pub.fn, "secret")
}

func TestCreatePublishesCreationEvent(t *testing.T) {
	store := newFakeVisitStore()
	pub := &capturePublish{}
	svc := newTestVisitService(store, &fakeNotifStore{}, pub)

	v := &model.Visit{VisitorID: "visitor-1", VisitorName: "Ada Lovelace", HostName: "Grace Hopper"}
	got, err := svc.Create(context.Background(), v, "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, model.VisitStatusPending, got.Status)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, queue.EventVisitCreated, ev.Type)
	assert.Equal(t, got.ID, ev.VisitID)
	assert.Equal(t, "visitor-1", ev.VisitorID)
	assert.Equal(t, "admin-1", ev.Actor)
	assert.Equal(t, model.VisitStatusPending, ev.NewStatus)
}

func TestApproveSetsQRAndNotifies(t *testing.T) {
	store := newFakeVisitStore(pendingVisit("v1"))
	notifs := &fakeNotifStore{}
	pub := &capturePublish{}
	svc := newTestVisitService(store, notifs, pub)

	got, err := svc.Approve(context.Background(), "v1", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "admin-1", *got.ApprovedBy)
	require.NotNil(t, got.QRCode)

	// The embedded payload must verify against the signing secret and
	// bind the visit to its visitor.
	payload, err := utils.DecodeQRPayload(*got.QRCode)
	require.NoError(t, err)
	assert.Equal(t, "v1", payload.VisitID)
	assert.Equal(t, "visitor-1", payload.VisitorID)
	assert.True(t, utils.VerifyQRPayload("secret", payload))

	require.Len(t, notifs.records, 1)
	assert.Equal(t, model.NotificationVisitApproved, notifs.records[0].Type)
	assert.Equal(t, "visitor-1", notifs.records[0].UserID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventVisitStatusChanged, pub.events[0].Type)
	assert.Equal(t, model.VisitStatusApproved, pub.events[0].NewStatus)
	assert.Equal(t, "admin-1", pub.events[0].Actor)
}

func TestApproveDecidedVisitConflicts(t *testing.T) {
	v := pendingVisit("v1")
	v.Status = model.VisitStatusDenied
	store := newFakeVisitStore(v)
	notifs := &fakeNotifStore{}
	svc := newTestVisitService(store, notifs, &capturePublish{})

	_, err := svc.Approve(context.Background(), "v1", "admin-1")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, notifs.records, "no notification for a failed decision")
}

func TestApproveUnknownVisit(t *testing.T) {
	svc := newTestVisitService(newFakeVisitStore(), &fakeNotifStore{}, &capturePublish{})
	_, err := svc.Approve(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDenyRequiresReason(t *testing.T) {
	store := newFakeVisitStore(pendingVisit("v1"))
	svc := newTestVisitService(store, &fakeNotifStore{}, &capturePublish{})

	_, err := svc.Deny(context.Background(), "v1", "admin-1", "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDenySetsReasonAndNotifies(t *testing.T) {
	store := newFakeVisitStore(pendingVisit("v1"))
	notifs := &fakeNotifStore{}
	pub := &capturePublish{}
	svc := newTestVisitService(store, notifs, pub)

	got, err := svc.Deny(context.Background(), "v1", "admin-1", "host unavailable")
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusDenied, got.Status)
	require.NotNil(t, got.DenialReason)
	assert.Equal(t, "host unavailable", *got.DenialReason)
	assert.Nil(t, got.QRCode, "denied visits never carry a QR payload")

	require.Len(t, notifs.records, 1)
	assert.Equal(t, model.NotificationVisitDenied, notifs.records[0].Type)

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.VisitStatusDenied, pub.events[0].NewStatus)
}

func TestBulkApproveBounds(t *testing.T) {
	svc := newTestVisitService(newFakeVisitStore(), &fakeNotifStore{}, &capturePublish{})

	_, err := svc.BulkApprove(context.Background(), nil, "admin-1")
	assert.ErrorIs(t, err, ErrValidation)

	ids := make([]string, maxBulkApprove+1)
	for i := range ids {
		ids[i] = "v"
	}
	_, err = svc.BulkApprove(context.Background(), ids, "admin-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkApprovePerIDOutcomes(t *testing.T) {
	decided := pendingVisit("v2")
	decided.Status = model.VisitStatusApproved
	store := newFakeVisitStore(pendingVisit("v1"), decided)
	svc := newTestVisitService(store, &fakeNotifStore{}, &capturePublish{})

	results, err := svc.BulkApprove(context.Background(), []string{"v1", "v2", "v3"}, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[string]BulkResult{}
	for _, r := range results {
		byID[r.VisitID] = r
	}
	assert.True(t, byID["v1"].Success)
	assert.False(t, byID["v2"].Success, "already decided")
	assert.False(t, byID["v3"].Success, "unknown id")
	assert.NotEmpty(t, byID["v3"].Error)
}

func TestSearchRequiresTerm(t *testing.T) {
	svc := newTestVisitService(newFakeVisitStore(), &fakeNotifStore{}, &capturePublish{})
	_, err := svc.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidation)
}
