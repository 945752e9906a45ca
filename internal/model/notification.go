package model

import "time"

// Notification type tags. They travel in the push payload data so the
// receiving client can route taps to the right screen.
const (
	NotificationVisitApproved  = "visit_approved"
	NotificationVisitDenied    = "visit_denied"
	NotificationCheckInSuccess = "check_in_success"
	NotificationVisitReminder  = "visit_reminder"
	NotificationDailySummary   = "daily_summary"
	NotificationNewVisit       = "new_visit_request"
)

// Notification is the durable log row written for every dispatch,
// whether or not a push was actually delivered. Read notifications older
// than the retention threshold are deleted in bulk by the cleanup sweep.
type Notification struct {
	ID             string    // notifications.id
	UserID         string    // notifications.user_id (visitor or admin)
	Title          string    // notifications.title
	Body           string    // notifications.body
	Type           string    // notifications.type
	RelatedVisitID *string   // notifications.related_visit_id (nullable)
	IsRead         bool      // notifications.is_read
	CreatedAt      time.Time // notifications.created_at
}
