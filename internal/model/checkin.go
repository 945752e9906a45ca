package model

import "time"

// CheckIn records a physical entry event for an approved visit. A visit
// has at most one open check-in (no check-out time) at any moment; the
// row is updated once when the visitor checks out and never deleted.
//
// Fields:
//  ID               – primary key (UUID).
//  VisitID          – visit being entered; must be approved at creation.
//  VisitorID        – visitor entering.
//  CheckInTime      – entry timestamp, always set.
//  CheckOutTime     – exit timestamp, nil while the visitor is inside.
//  CheckInLocation  – scanner-supplied entry location.
//  CheckOutLocation – exit location, set together with CheckOutTime.
//  VerifiedBy       – identifier of whoever verified the scan.
//  CreatedAt        – creation timestamp.
type CheckIn struct {
	ID               string     // qr_checkins.id
	VisitID          string     // qr_checkins.visit_id
	VisitorID        string     // qr_checkins.visitor_id
	CheckInTime      time.Time  // qr_checkins.check_in_time
	CheckOutTime     *time.Time // qr_checkins.check_out_time (nullable)
	CheckInLocation  string     // qr_checkins.check_in_location
	CheckOutLocation *string    // qr_checkins.check_out_location (nullable)
	VerifiedBy       string     // qr_checkins.verified_by
	CreatedAt        time.Time  // qr_checkins.created_at
}

// IsOpen reports whether the visitor has not checked out yet.
func (c *CheckIn) IsOpen() bool { return c.CheckOutTime == nil }

// Duration returns how long the visitor stayed. It is zero while the
// check-in is still open.
func (c *CheckIn) Duration() time.Duration {
	if c.CheckOutTime == nil {
		return 0
	}
	return c.CheckOutTime.Sub(c.CheckInTime)
}
