package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/publisher"
	"github.com/iliyamo/visitor-management/internal/queue"
	"github.com/iliyamo/visitor-management/internal/utils"
)

// maxBulkApprove bounds the number of visit ids accepted by a single
// bulk-approve call.
const maxBulkApprove = 50

// VisitStore is the slice of the visit repository the lifecycle service
// depends on. *repository.VisitRepo satisfies it; tests provide fakes.
type VisitStore interface {
	Create(ctx context.Context, v *model.Visit) error
	GetByID(ctx context.Context, id string) (*model.Visit, error)
	ListAll(ctx context.Context, limit int) ([]*model.Visit, error)
	ListPending(ctx context.Context) ([]*model.Visit, error)
	ListInDateRange(ctx context.Context, start, end time.Time) ([]*model.Visit, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Visit, error)
	Approve(ctx context.Context, id, approverID, qrCode string, now time.Time) error
	Deny(ctx context.Context, id, approverID, reason string, now time.Time) error
	CountInDateRange(ctx context.Context, start, end time.Time) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	CountByStatusInDateRange(ctx context.Context, status string, start, end time.Time) (int, error)
}

// PublishFunc sends one domain event to the broker. Publish failures are
// logged and otherwise ignored: an audit gap never blocks a decision.
type PublishFunc func(ctx context.Context, ev queue.ActivityEvent) error

// VisitService orchestrates the visit lifecycle: a pending visit is
// decided exactly once, the decision is pushed to the visitor, and an
// activity event is published for the audit trail. All writes go through
// the store's conditional transition, so two concurrent decisions on the
// same visit yield ErrConflict for the loser instead of silently
// overwriting each other.
type VisitService struct {
	visits     VisitStore
	dispatcher *Dispatcher
	publish    PublishFunc
	qrSecret   string
	now        func() time.Time
}

// NewVisitService constructs a VisitService. publish may be nil, in
// which case events go to the default broker publisher.
func NewVisitService(visits VisitStore, dispatcher *Dispatcher, publish PublishFunc, qrSecret string) *VisitService {
	if visits == nil || dispatcher == nil {
		panic("nil dependency passed to NewVisitService")
	}
	if publish == nil {
		publish = queue_publisher.PublishActivity
	}
	return &VisitService{
		visits:     visits,
		dispatcher: dispatcher,
		publish:    publish,
		qrSecret:   qrSecret,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new pending visit request on behalf of actor and
// publishes the creation to the audit trail. The store assigns the id
// and pending status.
func (s *VisitService) Create(ctx context.Context, v *model.Visit, actor string) (*model.Visit, error) {
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, err
	}

	ev := queue.ActivityEvent{
		Type:        queue.EventVisitCreated,
		VisitID:     v.ID,
		VisitorID:   v.VisitorID,
		VisitorName: v.VisitorName,
		Actor:       actor,
		NewStatus:   v.Status,
		OccurredAt:  s.now().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("visit service: publish %s for visit %s failed: %v", ev.Type, v.ID, err)
	}
	return v, nil
}

// Approve transitions a pending visit to approved on behalf of
// approverID. It signs a QR payload for the visit, stores it with the
// decision, notifies the visitor and publishes the status change. It
// returns the updated visit, or repository.ErrNotFound /
// repository.ErrConflict when the visit is missing or already decided.
func (s *VisitService) Approve(ctx context.Context, visitID, approverID string) (*model.Visit, error) {
	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	payload := utils.SignQRPayload(s.qrSecret, visit.ID, visit.VisitorID, now.UnixMilli())
	qrCode, err := utils.EncodeQRPayload(payload)
	if err != nil {
		return nil, err
	}

	if err := s.visits.Approve(ctx, visitID, approverID, qrCode, now); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your visit request for %s has been approved!", visit.VisitDate.Format("Jan 02, 2006"))
	if res, err := s.dispatcher.Notify(ctx, visit.VisitorID, "Visit Approved", body,
		model.NotificationVisitApproved, visit.ID); err != nil {
		log.Printf("visit approve: notification record failed: %v", err)
	} else if res != Delivered {
		log.Printf("visit approve: push for visit %s: %s", visit.ID, res)
	}

	s.publishStatusChange(ctx, visit, approverID, model.VisitStatusApproved, "")

	return s.visits.GetByID(ctx, visitID)
}

// Deny transitions a pending visit to denied with the given reason. The
// reason must be non-empty; ErrValidation is returned otherwise.
func (s *VisitService) Deny(ctx context.Context, visitID, approverID, reason string) (*model.Visit, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: denial reason is required", ErrValidation)
	}

	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if err := s.visits.Deny(ctx, visitID, approverID, reason, s.now()); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your visit request has been denied. Reason: %s", reason)
	if res, err := s.dispatcher.Notify(ctx, visit.VisitorID, "Visit Denied", body,
		model.NotificationVisitDenied, visit.ID); err != nil {
		log.Printf("visit deny: notification record failed: %v", err)
	} else if res != Delivered {
		log.Printf("visit deny: push for visit %s: %s", visit.ID, res)
	}

	s.publishStatusChange(ctx, visit, approverID, model.VisitStatusDenied, reason)

	return s.visits.GetByID(ctx, visitID)
}

// BulkResult reports the outcome for one id of a bulk approve.
type BulkResult struct {
	VisitID string `json:"visit_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkApprove approves up to maxBulkApprove pending visits, collecting a
// per-id outcome instead of failing the whole batch on the first bad id.
func (s *VisitService) BulkApprove(ctx context.Context, visitIDs []string, approverID string) ([]BulkResult, error) {
	if len(visitIDs) == 0 {
		return nil, fmt.Errorf("%w: visit ids are required", ErrValidation)
	}
	if len(visitIDs) > maxBulkApprove {
		return nil, fmt.Errorf("%w: at most %d visits can be approved at once", ErrValidation, maxBulkApprove)
	}
	results := make([]BulkResult, 0, len(visitIDs))
	for _, id := range visitIDs {
		if _, err := s.Approve(ctx, id, approverID); err != nil {
			results = append(results, BulkResult{VisitID: id, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{VisitID: id, Success: true})
	}
	return results, nil
}

// publishStatusChange emits the audit event for a decision. Failures are
// logged and ignored.
func (s *VisitService) publishStatusChange(ctx context.Context, visit *model.Visit, actor, newStatus, reason string) {
	ev := queue.ActivityEvent{
		Type:        queue.EventVisitStatusChanged,
		VisitID:     visit.ID,
		VisitorID:   visit.VisitorID,
		VisitorName: visit.VisitorName,
		Actor:       actor,
		OldStatus:   visit.Status,
		NewStatus:   newStatus,
		Detail:      reason,
		OccurredAt:  s.now().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("visit service: publish %s for visit %s failed: %v", ev.Type, visit.ID, err)
	}
}

// GetByID returns one visit.
func (s *VisitService) GetByID(ctx context.Context, id string) (*model.Visit, error) {
	return s.visits.GetByID(ctx, id)
}

// ListAll returns the 100 most recent visits, newest first.
func (s *VisitService) ListAll(ctx context.Context) ([]*model.Visit, error) {
	return s.visits.ListAll(ctx, 100)
}

// ListPending returns undecided visits, soonest scheduled date first.
func (s *VisitService) ListPending(ctx context.Context) ([]*model.Visit, error) {
	return s.visits.ListPending(ctx)
}

// ListToday returns visits scheduled for the current UTC day.
func (s *VisitService) ListToday(ctx context.Context) ([]*model.Visit, error) {
	start, end := dayBounds(s.now())
	return s.visits.ListInDateRange(ctx, start, end)
}

// Search matches visits by visitor name, email, company or host name.
func (s *VisitService) Search(ctx context.Context, term string) ([]*model.Visit, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrValidation)
	}
	return s.visits.Search(ctx, term, 100)
}

// Stats aggregates the visit counters shown on the dashboard: today's
// total, pending backlog, and approvals scheduled today.
type Stats struct {
	TodayTotal    int `json:"today_total"`
	PendingCount  int `json:"pending_count"`
	ApprovedToday int `json:"approved_today"`
}

// Stats returns the dashboard counters.
func (s *VisitService) Stats(ctx context.Context) (Stats, error) {
	start, end := dayBounds(s.now())
	var st Stats
	var err error
	if st.TodayTotal, err = s.visits.CountInDateRange(ctx, start, end); err != nil {
		return Stats{}, err
	}
	if st.PendingCount, err = s.visits.CountByStatus(ctx, model.VisitStatusPending); err != nil {
		return Stats{}, err
	}
	if st.ApprovedToday, err = s.visits.CountByStatusInDateRange(ctx, model.VisitStatusApproved, start, end); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// dayBounds returns the [start, end) UTC bounds of the day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
