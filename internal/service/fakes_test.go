package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/queue"
	"github.com/iliyamo/visitor-management/internal/repository"
)

// Fakes shared across the service tests. They keep everything in maps
// and slices so tests can assert on exactly what was written.

type fakeNotifStore struct {
	records []*model.Notification
	err     error
}

func (f *fakeNotifStore) Create(_ context.Context, n *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, n)
	return nil
}

type fakeTokens struct {
	tokens map[string]string
	err    error
}

func (f *fakeTokens) PushToken(_ context.Context, userID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	tok, ok := f.tokens[userID]
	return tok, ok, nil
}

type pushCall struct {
	token, title, body string
	data               map[string]string
}

type fakePusher struct {
	calls []pushCall
	err   error
}

func (f *fakePusher) Push(_ context.Context, token, title, body string, data map[string]string) error {
	f.calls = append(f.calls, pushCall{token: token, title: title, body: body, data: data})
	return f.err
}

// newTestDispatcher wires a dispatcher over the fakes with one known
// visitor token.
func newTestDispatcher(store *fakeNotifStore, push *fakePusher) *Dispatcher {
	return NewDispatcher(store, &fakeTokens{tokens: map[string]string{"visitor-1": "device-token"}}, push)
}

type fakeVisitStore struct {
	visits map[string]*model.Visit
}

func newFakeVisitStore(visits ...*model.Visit) *fakeVisitStore {
	m := make(map[string]*model.Visit, len(visits))
	for _, v := range visits {
		m[v.ID] = v
	}
	return &fakeVisitStore{visits: m}
}

func (f *fakeVisitStore) Create(_ context.Context, v *model.Visit) error {
	if v.ID == "" {
		v.ID = fmt.Sprintf("visit-%d", len(f.visits)+1)
	}
	if v.Status == "" {
		v.Status = model.VisitStatusPending
	}
	cp := *v
	f.visits[v.ID] = &cp
	return nil
}

func (f *fakeVisitStore) GetByID(_ context.Context, id string) (*model.Visit, error) {
	v, ok := f.visits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisitStore) ListAll(_ context.Context, limit int) ([]*model.Visit, error) {
	out := make([]*model.Visit, 0, len(f.visits))
	for _, v := range f.visits {
		out = append(out, v)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVisitStore) ListPending(_ context.Context) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
		if v.IsPending() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVisitStore) ListInDateRange(_ context.Context, start, end time.Time) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
		if !v.VisitDate.Before(start) && v.VisitDate.Before(end) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVisitStore) Search(_ context.Context, _ string, _ int) ([]*model.Visit, error) {
	return f.ListAll(context.Background(), 100)
}

func (f *fakeVisitStore) Approve(_ context.Context, id, approverID, qrCode string, now time.Time) error {
	v, ok := f.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !v.IsPending() {
		return repository.ErrConflict
	}
	v.Status = model.VisitStatusApproved
	v.QRCode = &qrCode
	v.ApprovedBy = &approverID
	v.ApprovedAt = &now
	v.UpdatedAt = now
	return nil
}

func (f *fakeVisitStore) Deny(_ context.Context, id, approverID, reason string, now time.Time) error {
	v, ok := f.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !v.IsPending() {
		return repository.ErrConflict
	}
	v.Status = model.VisitStatusDenied
	v.DenialReason = &reason
	v.ApprovedBy = &approverID
	v.ApprovedAt = &now
	v.UpdatedAt = now
	return nil
}

func (f *fakeVisitStore) CountInDateRange(ctx context.Context, start, end time.Time) (int, error) {
	vs, _ := f.ListInDateRange(ctx, start, end)
	return len(vs), nil
}

func (f *fakeVisitStore) CountByStatus(_ context.Context, status string) (int, error) {
	n := 0
	for _, v := range f.visits {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeVisitStore) CountByStatusInDateRange(ctx context.Context, status string, start, end time.Time) (int, error) {
	vs, _ := f.ListInDateRange(ctx, start, end)
	n := 0
	for _, v := range vs {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeCheckInStore struct {
	created []*model.CheckIn
	open    map[string]*model.CheckIn // keyed by visit id
	closed  map[string]time.Time      // check-in id -> out time
}

func newFakeCheckInStore() *fakeCheckInStore {
	return &fakeCheckInStore{open: make(map[string]*model.CheckIn), closed: make(map[string]time.Time)}
}

func (f *fakeCheckInStore) Create(_ context.Context, c *model.CheckIn) error {
	if c.ID == "" {
		c.ID = "checkin-" + c.VisitID
	}
	f.created = append(f.created, c)
	f.open[c.VisitID] = c
	return nil
}

func (f *fakeCheckInStore) GetOpenByVisit(_ context.Context, visitID string) (*model.CheckIn, error) {
	c, ok := f.open[visitID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCheckInStore) Close(_ context.Context, id string, outTime time.Time, _ string) error {
	for visitID, c := range f.open {
		if c.ID == id {
			f.closed[id] = outTime
			delete(f.open, visitID)
			return nil
		}
	}
	return repository.ErrNotFound
}

// capturePublish collects the events a service emits.
type capturePublish struct {
	events []queue.ActivityEvent
	err    error
}

func (p *capturePublish) fn(_ context.Context, ev queue.ActivityEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var errBoom = errors.New("boom")
