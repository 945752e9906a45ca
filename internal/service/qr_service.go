package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/publisher"
	"github.com/iliyamo/visitor-management/internal/queue"
	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/utils"
)

// CheckInStore is the slice of the check-in repository the QR service
// depends on. *repository.CheckInRepo satisfies it; tests provide fakes.
type CheckInStore interface {
	Create(ctx context.Context, c *model.CheckIn) error
	GetOpenByVisit(ctx context.Context, visitID string) (*model.CheckIn, error)
	Close(ctx context.Context, id string, outTime time.Time, outLocation string) error
}

// QRService validates scanned QR payloads at the gate, records entry
// and exit events, and notifies the visitor. It enforces the two gate
// invariants: a check-in only ever references an approved visit, and a
// visit has at most one open check-in at a time.
type QRService struct {
	visits     VisitStore
	checkIns   CheckInStore
	dispatcher *Dispatcher
	publish    PublishFunc
	secret     string
	now        func() time.Time
}

// NewQRService constructs a QRService. publish may be nil, in which
// case events go to the default broker publisher.
func NewQRService(visits VisitStore, checkIns CheckInStore, dispatcher *Dispatcher, publish PublishFunc, secret string) *QRService {
	if visits == nil || checkIns == nil || dispatcher == nil {
		panic("nil dependency passed to NewQRService")
	}
	if publish == nil {
		publish = queue_publisher.PublishActivity
	}
	return &QRService{
		visits:     visits,
		checkIns:   checkIns,
		dispatcher: dispatcher,
		publish:    publish,
		secret:     secret,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// resolve decodes and authenticates a raw payload and returns the visit
// it refers to. It rejects with ErrValidation for undecodable input,
// ErrSignatureMismatch for bad signatures or a visitor id that does not
// match the visit, repository.ErrNotFound for unknown visits, and
// ErrVisitNotApproved for visits in any other status.
func (s *QRService) resolve(ctx context.Context, rawPayload string) (*model.Visit, error) {
	p, err := utils.DecodeQRPayload(rawPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable qr payload", ErrValidation)
	}
	if !utils.VerifyQRPayload(s.secret, p) {
		return nil, ErrSignatureMismatch
	}
	visit, err := s.visits.GetByID(ctx, p.VisitID)
	if err != nil {
		return nil, err
	}
	if visit.VisitorID != p.VisitorID {
		return nil, ErrSignatureMismatch
	}
	if !visit.IsApproved() {
		return nil, ErrVisitNotApproved
	}
	return visit, nil
}

// Verify checks a payload without side effects, for pre-validation
// before the visitor reaches the gate. It reports the visit the payload
// belongs to and whether its holder is already inside.
func (s *QRService) Verify(ctx context.Context, rawPayload string) (*model.Visit, bool, error) {
	visit, err := s.resolve(ctx, rawPayload)
	if err != nil {
		return nil, false, err
	}
	_, err = s.checkIns.GetOpenByVisit(ctx, visit.ID)
	if err == nil {
		return visit, true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return visit, false, nil
	}
	return nil, false, err
}

// Validate authenticates a scanned payload and records the entry: it
// creates the check-in and notifies the visitor. ErrAlreadyCheckedIn is
// returned when the visit still has an open check-in.
func (s *QRService) Validate(ctx context.Context, rawPayload, location, verifiedBy string) (*model.CheckIn, error) {
	visit, err := s.resolve(ctx, rawPayload)
	if err != nil {
		return nil, err
	}

	if _, err := s.checkIns.GetOpenByVisit(ctx, visit.ID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	checkIn := &model.CheckIn{
		VisitID:         visit.ID,
		VisitorID:       visit.VisitorID,
		CheckInTime:     s.now(),
		CheckInLocation: location,
		VerifiedBy:      verifiedBy,
	}
	if err := s.checkIns.Create(ctx, checkIn); err != nil {
		return nil, err
	}

	if res, err := s.dispatcher.Notify(ctx, visit.VisitorID, "Check-In Successful",
		"You have successfully checked in. Welcome!",
		model.NotificationCheckInSuccess, visit.ID); err != nil {
		log.Printf("qr validate: notification record failed: %v", err)
	} else if res != Delivered {
		log.Printf("qr validate: push for visit %s: %s", visit.ID, res)
	}

	s.publishEvent(ctx, queue.ActivityEvent{
		Type:       queue.EventCheckInCreated,
		VisitID:    visit.ID,
		VisitorID:  visit.VisitorID,
		Actor:      verifiedBy,
		CheckInID:  checkIn.ID,
		Location:   location,
		OccurredAt: checkIn.CheckInTime.Format(time.RFC3339),
	})

	return checkIn, nil
}

// CheckOut closes the open check-in for a visit, recording the exit time
// and location. repository.ErrNotFound is returned when the visitor is
// not currently inside.
func (s *QRService) CheckOut(ctx context.Context, visitID, location string) (*model.CheckIn, error) {
	open, err := s.checkIns.GetOpenByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	outTime := s.now()
	if err := s.checkIns.Close(ctx, open.ID, outTime, location); err != nil {
		return nil, err
	}
	open.CheckOutTime = &outTime
	loc := location
	open.CheckOutLocation = &loc

	s.publishEvent(ctx, queue.ActivityEvent{
		Type:       queue.EventCheckOutRecorded,
		VisitID:    open.VisitID,
		VisitorID:  open.VisitorID,
		CheckInID:  open.ID,
		Location:   location,
		Detail:     fmt.Sprintf("duration=%s", open.Duration().Round(time.Second)),
		OccurredAt: outTime.Format(time.RFC3339),
	})

	return open, nil
}

// publishEvent emits one audit event; failures are logged and ignored.
func (s *QRService) publishEvent(ctx context.Context, ev queue.ActivityEvent) {
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("qr service: publish %s for visit %s failed: %v", ev.Type, ev.VisitID, err)
	}
}
