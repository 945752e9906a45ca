package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// VisitRepo provides CRUD operations for visit requests. A visit is
// created pending by the visitor-facing flow and decided exactly once by
// an admin (or by the auto-expire sweep). Status transitions are guarded
// by a conditional UPDATE keyed on the expected current status, so two
// concurrent decisions on the same visit produce a detectable conflict
// instead of silent last-writer-wins. All timestamps are stored in UTC.
type VisitRepo struct {
	db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *VisitRepo) DB() *sql.DB { return r.db }

const visitColumns = `id, visitor_id, visitor_name, visitor_email, visitor_phone,
	visitor_company, purpose, host_name, host_department, visit_date,
	expected_arrival_time, expected_departure_time, status, qr_code, notes,
	denial_reason, approved_by, approved_at, created_at, updated_at`

// scanVisit reads one visits row from any row scanner into a model.Visit.
func scanVisit(s interface{ Scan(...interface{}) error }) (*model.Visit, error) {
	var (
		v            model.Visit
		qrCode       sql.NullString
		notes        sql.NullString
		denialReason sql.NullString
		approvedBy   sql.NullString
		approvedAt   sql.NullTime
	)
	err := s.Scan(
		&v.ID, &v.VisitorID, &v.VisitorName, &v.VisitorEmail, &v.VisitorPhone,
		&v.VisitorCompany, &v.Purpose, &v.HostName, &v.HostDepartment, &v.VisitDate,
		&v.ExpectedArrivalTime, &v.ExpectedDepartureTime, &v.Status, &qrCode, &notes,
		&denialReason, &approvedBy, &approvedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if qrCode.Valid {
		qc := qrCode.String
		v.QRCode = &qc
	}
	if notes.Valid {
		v.Notes = notes.String
	}
	if denialReason.Valid {
		dr := denialReason.String
		v.DenialReason = &dr
	}
	if approvedBy.Valid {
		ab := approvedBy.String
		v.ApprovedBy = &ab
	}
	if approvedAt.Valid {
		at := approvedAt.Time.UTC()
		v.ApprovedAt = &at
	}
	return &v, nil
}

// collectVisits drains a result set into a slice, returning an empty
// slice (not nil) when there are no rows.
func collectVisits(rows *sql.Rows) ([]*model.Visit, error) {
	defer rows.Close()
	visits := make([]*model.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visits, nil
}

// Create inserts a new pending visit and fills in the generated ID and
// timestamps on the provided record.
func (r *VisitRepo) Create(ctx context.Context, v *model.Visit) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Status == "" {
		v.Status = model.VisitStatusPending
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	const q = `INSERT INTO visits (id, visitor_id, visitor_name, visitor_email,
		visitor_phone, visitor_company, purpose, host_name, host_department,
		visit_date, expected_arrival_time, expected_departure_time, status,
		notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		v.ID, v.VisitorID, v.VisitorName, v.VisitorEmail,
		v.VisitorPhone, v.VisitorCompany, v.Purpose, v.HostName, v.HostDepartment,
		v.VisitDate, v.ExpectedArrivalTime, v.ExpectedDepartureTime, v.Status,
		v.Notes, v.CreatedAt, v.UpdatedAt)
	return err
}

// GetByID returns a single visit. It returns ErrNotFound when the id has
// no backing row.
func (r *VisitRepo) GetByID(ctx context.Context, id string) (*model.Visit, error) {
	const q = `SELECT ` + visitColumns + ` FROM visits WHERE id = ?`
	v, err := scanVisit(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

// ListAll returns the most recent visits, newest first, capped at limit.
func (r *VisitRepo) ListAll(ctx context.Context, limit int) ([]*model.Visit, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + visitColumns + ` FROM visits ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// ListPending returns all undecided visits ordered by their scheduled
// date ascending, so the soonest request surfaces first.
func (r *VisitRepo) ListPending(ctx context.Context) ([]*model.Visit, error) {
	const q = `SELECT ` + visitColumns + ` FROM visits WHERE status = ? ORDER BY visit_date ASC`
	rows, err := r.db.QueryContext(ctx, q, model.VisitStatusPending)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// ListInDateRange returns visits whose visit_date falls in [start, end),
// ordered by visit date ascending.
func (r *VisitRepo) ListInDateRange(ctx context.Context, start, end time.Time) ([]*model.Visit, error) {
	const q = `SELECT ` + visitColumns + ` FROM visits
		WHERE visit_date >= ? AND visit_date < ? ORDER BY visit_date ASC`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// ListApprovedArrivingBetween returns approved visits whose expected
// arrival falls in [start, end). The reminder sweep uses this to find
// visits due in the reminder window.
func (r *VisitRepo) ListApprovedArrivingBetween(ctx context.Context, start, end time.Time) ([]*model.Visit, error) {
	const q = `SELECT ` + visitColumns + ` FROM visits
		WHERE status = ? AND expected_arrival_time >= ? AND expected_arrival_time < ?
		ORDER BY expected_arrival_time ASC`
	rows, err := r.db.QueryContext(ctx, q, model.VisitStatusApproved, start, end)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// ListPendingBefore returns up to limit pending visits whose scheduled
// date is strictly before the cutoff, oldest first. The auto-expire
// sweep pages through this until it drains.
func (r *VisitRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Visit, error) {
	const q = `SELECT ` + visitColumns + ` FROM visits
		WHERE status = ? AND visit_date < ? ORDER BY visit_date ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.VisitStatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// Search matches visits whose visitor name, email, company or host name
// contains the term, newest first, capped at limit.
func (r *VisitRepo) Search(ctx context.Context, term string, limit int) ([]*model.Visit, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + strings.TrimSpace(term) + "%"
	const q = `SELECT ` + visitColumns + ` FROM visits
		WHERE visitor_name LIKE ? OR visitor_email LIKE ? OR visitor_company LIKE ? OR host_name LIKE ?
		ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, like, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// Approve transitions a pending visit to approved, recording the
// approver, the decision time and the signed QR payload in one
// conditional update. When zero rows change, the visit is either missing
// (ErrNotFound) or already decided (ErrConflict).
func (r *VisitRepo) Approve(ctx context.Context, id, approverID, qrCode string, now time.Time) error {
	const q = `UPDATE visits
		SET status = ?, approved_by = ?, approved_at = ?, qr_code = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		model.VisitStatusApproved, approverID, now, qrCode, now,
		id, model.VisitStatusPending)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, res, id)
}

// Deny transitions a pending visit to denied with the given reason under
// the same conditional-update guard as Approve.
func (r *VisitRepo) Deny(ctx context.Context, id, approverID, reason string, now time.Time) error {
	const q = `UPDATE visits
		SET status = ?, approved_by = ?, approved_at = ?, denial_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		model.VisitStatusDenied, approverID, now, reason, now,
		id, model.VisitStatusPending)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, res, id)
}

// transitionOutcome interprets a zero-row conditional update: a missing
// row means ErrNotFound, an existing row in another status means
// ErrConflict.
func (r *VisitRepo) transitionOutcome(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM visits WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// CountInDateRange counts visits scheduled in [start, end).
func (r *VisitRepo) CountInDateRange(ctx context.Context, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM visits WHERE visit_date >= ? AND visit_date < ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, start, end).Scan(&n)
	return n, err
}

// CountByStatus counts all visits currently in the given status.
func (r *VisitRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	const q = `SELECT COUNT(*) FROM visits WHERE status = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, status).Scan(&n)
	return n, err
}

// CountByStatusInDateRange counts visits in the given status scheduled
// in [start, end).
func (r *VisitRepo) CountByStatusInDateRange(ctx context.Context, status string, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM visits WHERE status = ? AND visit_date >= ? AND visit_date < ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, status, start, end).Scan(&n)
	return n, err
}
