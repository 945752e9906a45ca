package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/repository"
)

// RunAutoExpire denies every pending visit whose scheduled date has
// already passed. It works in pages: each page of stale pending visits
// is denied one by one, then the next page is fetched, until a short
// page shows the backlog is drained. Because each denial removes the row
// from the pending set, the query needs no cursor offset.
func (s *Scheduler) RunAutoExpire(ctx context.Context) error {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	expired := 0
	for {
		visits, err := s.visits.ListPendingBefore(ctx, todayStart, pageSize)
		if err != nil {
			return fmt.Errorf("list stale pending visits: %w", err)
		}
		progressed := 0
		for _, v := range visits {
			if err := s.expireOne(ctx, v, now); err != nil {
				log.Printf("auto expire: visit %s: %v", v.ID, err)
				continue
			}
			progressed++
			expired++
		}
		if len(visits) < pageSize {
			break
		}
		// A full page where nothing transitioned would be refetched
		// verbatim; bail and let the next run retry.
		if progressed == 0 {
			return fmt.Errorf("auto expire: no visit in a full page of %d transitioned, aborting sweep", pageSize)
		}
	}
	if expired > 0 {
		log.Printf("auto expire: denied %d stale pending visits", expired)
	}
	return nil
}

func (s *Scheduler) expireOne(ctx context.Context, v *model.Visit, now time.Time) error {
	err := s.visits.Deny(ctx, v.ID, systemActor, expiredReason, now)
	if errors.Is(err, repository.ErrConflict) {
		// Decided by an admin between the list and the update; not ours.
		return nil
	}
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your visit request for %s expired because the scheduled date has passed.",
		v.VisitDate.Format("Jan 02, 2006"))
	if _, err := s.notifier.Notify(ctx, v.VisitorID, "Visit Request Expired", body,
		model.NotificationVisitDenied, v.ID); err != nil {
		log.Printf("auto expire: notification record for visit %s failed: %v", v.ID, err)
	}
	return nil
}
