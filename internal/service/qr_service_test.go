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

func approvedVisit(id string) *model.Visit {
	v := pendingVisit(id)
	v.Status = model.VisitStatusApproved
	return v
}

func signedPayload(t *testing.T, secret, visitID, visitorID string) string {
	t.Helper()
	raw, err := utils.EncodeQRPayload(utils.SignQRPayload(secret, visitID, visitorID, time.Now().UnixMilli()))
	require.NoError(t, err)
	return raw
}

func newTestQRService(visits VisitStore, checkIns CheckInStore, notifs *fakeNotifStore, pub *capturePublish) *QRService {
	d := newTestDispatcher(notifs, &fakePusher{})
	return NewQRService(visits, checkIns, d, pub.fn, "secret")
}

func TestValidateRecordsCheckIn(t *testing.T) {
	checkIns := newFakeCheckInStore()
	notifs := &fakeNotifStore{}
	pub := &capturePublish{}
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), checkIns, notifs, pub)

	raw := signedPayload(t, "secret", "v1", "visitor-1")
	checkIn, err := svc.Validate(context.Background(), raw, "main lobby", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "v1", checkIn.VisitID)
	assert.Equal(t, "visitor-1", checkIn.VisitorID)
	assert.Equal(t, "main lobby", checkIn.CheckInLocation)
	assert.Equal(t, "admin-1", checkIn.VerifiedBy)
	assert.False(t, checkIn.CheckInTime.IsZero())
	require.Len(t, checkIns.created, 1)

	require.Len(t, notifs.records, 1)
	assert.Equal(t, model.NotificationCheckInSuccess, notifs.records[0].Type)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventCheckInCreated, pub.events[0].Type)
}

func TestValidateRejectsBadSignature(t *testing.T) {
	checkIns := newFakeCheckInStore()
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), checkIns, &fakeNotifStore{}, &capturePublish{})

	raw := signedPayload(t, "wrong-secret", "v1", "visitor-1")
	_, err := svc.Validate(context.Background(), raw, "gate", "admin-1")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Empty(t, checkIns.created, "no check-in on a forged payload")
}

func TestValidateRejectsUndecodablePayload(t *testing.T) {
	svc := newTestQRService(newFakeVisitStore(), newFakeCheckInStore(), &fakeNotifStore{}, &capturePublish{})
	_, err := svc.Validate(context.Background(), "not a qr payload", "gate", "admin-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateRejectsVisitorMismatch(t *testing.T) {
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), newFakeCheckInStore(), &fakeNotifStore{}, &capturePublish{})

	// Signature is valid but was issued for a different visitor.
	raw := signedPayload(t, "secret", "v1", "visitor-9")
	_, err := svc.Validate(context.Background(), raw, "gate", "admin-1")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestValidateRejectsUnapprovedVisit(t *testing.T) {
	svc := newTestQRService(newFakeVisitStore(pendingVisit("v1")), newFakeCheckInStore(), &fakeNotifStore{}, &capturePublish{})

	raw := signedPayload(t, "secret", "v1", "visitor-1")
	_, err := svc.Validate(context.Background(), raw, "gate", "admin-1")
	assert.ErrorIs(t, err, ErrVisitNotApproved)
}

func TestValidateRejectsDoubleCheckIn(t *testing.T) {
	checkIns := newFakeCheckInStore()
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), checkIns, &fakeNotifStore{}, &capturePublish{})

	raw := signedPayload(t, "secret", "v1", "visitor-1")
	_, err := svc.Validate(context.Background(), raw, "gate", "admin-1")
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), raw, "gate", "admin-1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Len(t, checkIns.created, 1)
}

func TestVerifyHasNoSideEffects(t *testing.T) {
	checkIns := newFakeCheckInStore()
	notifs := &fakeNotifStore{}
	pub := &capturePublish{}
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), checkIns, notifs, pub)

	raw := signedPayload(t, "secret", "v1", "visitor-1")
	visit, inside, err := svc.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "v1", visit.ID)
	assert.False(t, inside)

	assert.Empty(t, checkIns.created)
	assert.Empty(t, notifs.records)
	assert.Empty(t, pub.events)
}

func TestCheckOutClosesOpenCheckIn(t *testing.T) {
	checkIns := newFakeCheckInStore()
	pub := &capturePublish{}
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), checkIns, &fakeNotifStore{}, pub)

	raw := signedPayload(t, "secret", "v1", "visitor-1")
	_, err := svc.Validate(context.Background(), raw, "gate", "admin-1")
	require.NoError(t, err)

	closed, err := svc.CheckOut(context.Background(), "v1", "east exit")
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutTime)
	assert.False(t, closed.CheckOutTime.Before(closed.CheckInTime), "checkout never precedes checkin")
	require.NotNil(t, closed.CheckOutLocation)
	assert.Equal(t, "east exit", *closed.CheckOutLocation)

	// checkin_created then checkout_recorded.
	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.EventCheckOutRecorded, pub.events[1].Type)
}

func TestCheckOutWithoutOpenCheckIn(t *testing.T) {
	svc := newTestQRService(newFakeVisitStore(approvedVisit("v1")), newFakeCheckInStore(), &fakeNotifStore{}, &capturePublish{})
	_, err := svc.CheckOut(context.Background(), "v1", "gate")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
