package jobs

import (
	"context"
	"fmt"
	"log"
)

// RunNotificationCleanup deletes notifications that were both read and
// created before the retention cutoff, in pages, looping until a short
// page shows the backlog is drained.
func (s *Scheduler) RunNotificationCleanup(ctx context.Context) error {
	cutoff := s.now().Add(-notificationRetention)

	var total int64
	for {
		n, err := s.notifications.DeleteReadBefore(ctx, cutoff, pageSize)
		if err != nil {
			return fmt.Errorf("delete read notifications: %w", err)
		}
		total += n
		if n < pageSize {
			break
		}
	}
	if total > 0 {
		log.Printf("notification cleanup: deleted %d rows", total)
	}
	return nil
}

// RunActivityLogCleanup deletes activity-log entries older than the
// retention cutoff, paged the same way.
func (s *Scheduler) RunActivityLogCleanup(ctx context.Context) error {
	cutoff := s.now().Add(-activityRetention)

	var total int64
	for {
		n, err := s.activity.DeleteBefore(ctx, cutoff, pageSize)
		if err != nil {
			return fmt.Errorf("delete activity logs: %w", err)
		}
		total += n
		if n < pageSize {
			break
		}
	}
	if total > 0 {
		log.Printf("activity log cleanup: deleted %d rows", total)
	}
	return nil
}
