package model

import "time"

// Visit statuses. A visit starts as pending and is decided exactly once:
// pending -> approved or pending -> denied. Decided visits never revert.
const (
	VisitStatusPending  = "pending"
	VisitStatusApproved = "approved"
	VisitStatusDenied   = "denied"
)

// Visit records a visitor's request to enter the facility on a given
// date. Visitor name, email, phone and company are denormalized onto the
// visit so list views never join against the visitors table; edits to a
// visitor profile do not rewrite historical visits.
//
// Fields:
//  ID                    – primary key (UUID).
//  VisitorID             – visitor who requested the visit.
//  VisitorName           – denormalized visitor full name.
//  VisitorEmail          – denormalized visitor email.
//  VisitorPhone          – denormalized visitor phone.
//  VisitorCompany        – denormalized visitor company.
//  Purpose               – purpose of the visit.
//  HostName              – employee being visited.
//  HostDepartment        – host's department.
//  VisitDate             – scheduled calendar date of the visit.
//  ExpectedArrivalTime   – expected arrival timestamp.
//  ExpectedDepartureTime – expected departure timestamp.
//  Status                – pending, approved or denied.
//  QRCode                – signed QR payload, set only once approved.
//  Notes                 – free-form notes from the request.
//  DenialReason          – reason, set only when denied.
//  ApprovedBy            – admin ID (or "system") once decided.
//  ApprovedAt            – decision timestamp once decided.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Visit struct {
	ID                    string     // visits.id
	VisitorID             string     // visits.visitor_id
	VisitorName           string     // visits.visitor_name
	VisitorEmail          string     // visits.visitor_email
	VisitorPhone          string     // visits.visitor_phone
	VisitorCompany        string     // visits.visitor_company
	Purpose               string     // visits.purpose
	HostName              string     // visits.host_name
	HostDepartment        string     // visits.host_department
	VisitDate             time.Time  // visits.visit_date
	ExpectedArrivalTime   time.Time  // visits.expected_arrival_time
	ExpectedDepartureTime time.Time  // visits.expected_departure_time
	Status                string     // visits.status
	QRCode                *string    // visits.qr_code (nullable)
	Notes                 string     // visits.notes
	DenialReason          *string    // visits.denial_reason (nullable)
	ApprovedBy            *string    // visits.approved_by (nullable)
	ApprovedAt            *time.Time // visits.approved_at (nullable)
	CreatedAt             time.Time  // visits.created_at
	UpdatedAt             time.Time  // visits.updated_at
}

// IsPending reports whether the visit has not been decided yet.
func (v *Visit) IsPending() bool { return v.Status == VisitStatusPending }

// IsApproved reports whether the visit was approved.
func (v *Visit) IsApproved() bool { return v.Status == VisitStatusApproved }

// IsDenied reports whether the visit was denied.
func (v *Visit) IsDenied() bool { return v.Status == VisitStatusDenied }
