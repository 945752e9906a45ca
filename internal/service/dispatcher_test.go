package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/visitor-management/internal/model"
)

func TestNotifyDelivered(t *testing.T) {
	store := &fakeNotifStore{}
	push := &fakePusher{}
	d := newTestDispatcher(store, push)

	res, err := d.Notify(context.Background(), "visitor-1", "Visit Approved", "see you soon",
		model.NotificationVisitApproved, "visit-1")
	require.NoError(t, err)
	assert.Equal(t, Delivered, res)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, "visitor-1", rec.UserID)
	assert.Equal(t, model.NotificationVisitApproved, rec.Type)
	require.NotNil(t, rec.RelatedVisitID)
	assert.Equal(t, "visit-1", *rec.RelatedVisitID)

	require.Len(t, push.calls, 1)
	assert.Equal(t, "device-token", push.calls[0].token)
	assert.Equal(t, "visit-1", push.calls[0].data["visitId"])
}

func TestNotifyTokenMissingStillRecords(t *testing.T) {
	store := &fakeNotifStore{}
	push := &fakePusher{}
	d := newTestDispatcher(store, push)

	res, err := d.Notify(context.Background(), "visitor-without-token", "t", "b",
		model.NotificationVisitDenied, "")
	require.NoError(t, err)
	assert.Equal(t, TokenMissing, res)
	assert.Len(t, store.records, 1, "record must be written even without a token")
	assert.Empty(t, push.calls)
}

func TestNotifyPushFailureIsNotAnError(t *testing.T) {
	store := &fakeNotifStore{}
	push := &fakePusher{err: errBoom}
	d := newTestDispatcher(store, push)

	res, err := d.Notify(context.Background(), "visitor-1", "t", "b",
		model.NotificationCheckInSuccess, "visit-1")
	require.NoError(t, err, "push failures surface via the result only")
	assert.Equal(t, SendFailed, res)
	assert.Len(t, store.records, 1)
}

func TestNotifyTokenLookupFailureRecordsWithoutPush(t *testing.T) {
	store := &fakeNotifStore{}
	push := &fakePusher{}
	d := NewDispatcher(store, &fakeTokens{err: errBoom}, push)

	res, err := d.Notify(context.Background(), "visitor-1", "t", "b",
		model.NotificationVisitApproved, "visit-1")
	require.NoError(t, err, "lookup failures surface via the result only")
	assert.Equal(t, SendFailed, res)
	assert.Len(t, store.records, 1, "record must be written before the lookup")
	assert.Empty(t, push.calls, "no push without a resolved token")
}

func TestNotifyStoreFailureIsAnError(t *testing.T) {
	store := &fakeNotifStore{err: errBoom}
	push := &fakePusher{}
	d := newTestDispatcher(store, push)

	_, err := d.Notify(context.Background(), "visitor-1", "t", "b",
		model.NotificationVisitApproved, "")
	assert.Error(t, err)
	assert.Empty(t, push.calls, "no push before the record is durable")
}
