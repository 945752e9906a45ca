// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/visitor-management/internal/model"

// Event types carried on the visitor.events queue. The consumer copies
// the type verbatim into activity_logs, so the wire values are the
// model's activity types.
const (
	EventVisitCreated       = model.ActivityVisitCreated
	EventVisitStatusChanged = model.ActivityVisitStatusChanged
	EventCheckInCreated     = model.ActivityCheckInCreated
	EventCheckOutRecorded   = model.ActivityCheckOutRecorded
)

// ActivityEvent is published for every visit lifecycle change and every
// check-in/check-out. It carries enough information for downstream
// consumers to write audit rows or trigger analytics without querying
// the primary database. Fields that do not apply to a given event type
// are left empty.
type ActivityEvent struct {
	Type        string `json:"type"`
	VisitID     string `json:"visit_id"`
	VisitorID   string `json:"visitor_id"`
	VisitorName string `json:"visitor_name,omitempty"`
	Actor       string `json:"actor,omitempty"`
	OldStatus   string `json:"old_status,omitempty"`
	NewStatus   string `json:"new_status,omitempty"`
	CheckInID   string `json:"checkin_id,omitempty"`
	Location    string `json:"location,omitempty"`
	Detail      string `json:"detail,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
