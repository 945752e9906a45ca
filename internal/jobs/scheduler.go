// Package jobs runs the scheduled maintenance sweeps: visit reminders,
// the daily admin summary, auto-expiry of stale pending visits, and
// retention cleanup for notifications and activity logs. Each sweep is
// an exported Run* method so it can be invoked directly from tests or a
// one-off admin command; Start wires them to tickers.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/service"
)

const (
	// pageSize bounds each delete or expire batch so a sweep never holds
	// a long transaction over an unbounded row count.
	pageSize = 500

	reminderLead   = 2 * time.Hour
	reminderWindow = 15 * time.Minute

	notificationRetention = 30 * 24 * time.Hour
	activityRetention     = 90 * 24 * time.Hour

	// systemActor is recorded as the approver on automatic transitions.
	systemActor = "system"

	// expiredReason is the denial reason written by the auto-expire sweep.
	expiredReason = "Visit request expired - scheduled date has passed"
)

// Notifier sends one notification; *service.Dispatcher satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body, typ, relatedVisitID string) (service.DeliveryResult, error)
}

// VisitSource is the slice of the visit repository the sweeps need.
type VisitSource interface {
	ListApprovedArrivingBetween(ctx context.Context, start, end time.Time) ([]*model.Visit, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Visit, error)
	Deny(ctx context.Context, id, approverID, reason string, now time.Time) error
	CountInDateRange(ctx context.Context, start, end time.Time) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// CheckInSource counts check-ins for the daily summary.
type CheckInSource interface {
	CountInRange(ctx context.Context, start, end time.Time) (int, error)
}

// AdminSource lists the admins who receive the daily summary.
type AdminSource interface {
	ListActive(ctx context.Context) ([]*model.Admin, error)
}

// NotificationJanitor deletes expired notification rows in pages.
type NotificationJanitor interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// ActivityJanitor deletes expired activity-log rows in pages.
type ActivityJanitor interface {
	DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// Scheduler owns the periodic sweeps. Construct with NewScheduler and
// call Start once; the goroutines stop when the context is cancelled.
type Scheduler struct {
	visits        VisitSource
	checkIns      CheckInSource
	admins        AdminSource
	notifications NotificationJanitor
	activity      ActivityJanitor
	notifier      Notifier

	now func() time.Time
}

func NewScheduler(visits VisitSource, checkIns CheckInSource, admins AdminSource,
	notifications NotificationJanitor, activity ActivityJanitor, notifier Notifier) *Scheduler {
	if visits == nil || checkIns == nil || admins == nil || notifications == nil || activity == nil || notifier == nil {
		panic("nil dependency passed to NewScheduler")
	}
	return &Scheduler{
		visits:        visits,
		checkIns:      checkIns,
		admins:        admins,
		notifications: notifications,
		activity:      activity,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start launches every sweep in its own goroutine. Reminders run hourly,
// auto-expiry every six hours, the admin summary daily at 17:00 UTC,
// and the retention cleanups daily at midnight UTC.
func (s *Scheduler) Start(ctx context.Context) {
	go s.every(ctx, time.Hour, "visit reminder", s.RunReminders)
	go s.every(ctx, 6*time.Hour, "auto expire", s.RunAutoExpire)
	go s.dailyAt(ctx, 17, 0, "daily summary", s.RunDailySummary)
	go s.dailyAt(ctx, 0, 0, "notification cleanup", s.RunNotificationCleanup)
	go s.dailyAt(ctx, 0, 0, "activity log cleanup", s.RunActivityLogCleanup)
	log.Println("scheduled jobs started")
}

// every runs fn on a fixed interval until ctx is done.
func (s *Scheduler) every(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.run(ctx, name, fn)
		}
	}
}

// dailyAt runs fn once per day at hh:mm UTC until ctx is done.
func (s *Scheduler) dailyAt(ctx context.Context, hour, minute int, name string, fn func(context.Context) error) {
	for {
		next := s.nextRun(hour, minute)
		t := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			s.run(ctx, name, fn)
		}
	}
}

// nextRun returns the next occurrence of hh:mm UTC strictly after now.
func (s *Scheduler) nextRun(hour, minute int) time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) run(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Printf("job %s: %v", name, err)
	}
}
