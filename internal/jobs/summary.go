package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
)

// RunDailySummary pushes today's headline numbers to every active admin
// who has a device token registered. Admins without a token are skipped
// outright rather than accumulating unread summary rows.
func (s *Scheduler) RunDailySummary(ctx context.Context) error {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	total, err := s.visits.CountInDateRange(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("count today's visits: %w", err)
	}
	pending, err := s.visits.CountByStatus(ctx, model.VisitStatusPending)
	if err != nil {
		return fmt.Errorf("count pending visits: %w", err)
	}
	checkIns, err := s.checkIns.CountInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("count today's check-ins: %w", err)
	}

	admins, err := s.admins.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active admins: %w", err)
	}

	body := fmt.Sprintf("Today: %d visits, %d check-ins, %d pending approvals", total, checkIns, pending)
	sent := 0
	for _, a := range admins {
		if a.PushToken == nil {
			continue
		}
		if _, err := s.notifier.Notify(ctx, a.ID, "Daily Summary", body,
			model.NotificationDailySummary, ""); err != nil {
			log.Printf("daily summary: record for admin %s failed: %v", a.ID, err)
			continue
		}
		sent++
	}
	log.Printf("daily summary: sent to %d of %d active admins", sent, len(admins))
	return nil
}
