package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/service"
)

// RunReminders pushes an arrival reminder for every approved visit whose
// expected arrival falls inside the next reminder window. The window is
// [now+2h, now+2h15m): with hourly runs and a 15 minute width each visit
// is picked up at most once.
func (s *Scheduler) RunReminders(ctx context.Context) error {
	start := s.now().Add(reminderLead)
	end := start.Add(reminderWindow)

	visits, err := s.visits.ListApprovedArrivingBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("list upcoming visits: %w", err)
	}

	sent := 0
	for _, v := range visits {
		body := fmt.Sprintf("Reminder: your visit to %s is scheduled at %s.",
			v.HostName, v.ExpectedArrivalTime.Format("15:04"))
		res, err := s.notifier.Notify(ctx, v.VisitorID, "Upcoming Visit", body,
			model.NotificationVisitReminder, v.ID)
		if err != nil {
			log.Printf("reminder: record for visit %s failed: %v", v.ID, err)
			continue
		}
		if res == service.Delivered {
			sent++
		}
	}
	if len(visits) > 0 {
		log.Printf("reminder: %d visits in window, %d pushes delivered", len(visits), sent)
	}
	return nil
}
