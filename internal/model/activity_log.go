package model

import "time"

// Activity log event types, matching the events published on the broker.
const (
	ActivityVisitCreated       = "visit_created"
	ActivityVisitStatusChanged = "visit_status_changed"
	ActivityCheckInCreated     = "checkin_created"
	ActivityCheckOutRecorded   = "checkout_recorded"
)

// ActivityLog is an audit row written by the event consumer for every
// domain event. Entries older than the retention threshold are deleted
// by the cleanup sweep.
type ActivityLog struct {
	ID        string    // activity_logs.id
	Type      string    // activity_logs.type
	VisitID   string    // activity_logs.visit_id
	VisitorID string    // activity_logs.visitor_id
	Actor     string    // activity_logs.actor (admin id, "system" or scanner id)
	OldStatus *string   // activity_logs.old_status (nullable)
	NewStatus *string   // activity_logs.new_status (nullable)
	Detail    string    // activity_logs.detail
	CreatedAt time.Time // activity_logs.created_at
}
