package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// CheckInRepo provides persistence for entry/exit events. A row is
// created when a QR scan validates and updated exactly once when the
// visitor checks out; rows are never deleted. The uniqueness of the open
// check-in per visit is enforced by the QR validation flow, which checks
// GetOpenByVisit before inserting.
type CheckInRepo struct {
	db *sql.DB
}

// NewCheckInRepo returns a new CheckInRepo bound to the given database.
func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

const checkInColumns = `id, visit_id, visitor_id, check_in_time, check_out_time,
	check_in_location, check_out_location, verified_by, created_at`

func scanCheckIn(s interface{ Scan(...interface{}) error }) (*model.CheckIn, error) {
	var (
		c           model.CheckIn
		checkOut    sql.NullTime
		outLocation sql.NullString
	)
	err := s.Scan(
		&c.ID, &c.VisitID, &c.VisitorID, &c.CheckInTime, &checkOut,
		&c.CheckInLocation, &outLocation, &c.VerifiedBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		c.CheckOutTime = &t
	}
	if outLocation.Valid {
		loc := outLocation.String
		c.CheckOutLocation = &loc
	}
	return &c, nil
}

func collectCheckIns(rows *sql.Rows) ([]*model.CheckIn, error) {
	defer rows.Close()
	checkIns := make([]*model.CheckIn, 0)
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		checkIns = append(checkIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return checkIns, nil
}

// Create inserts a new open check-in and fills in the generated ID and
// creation timestamp on the provided record.
func (r *CheckInRepo) Create(ctx context.Context, c *model.CheckIn) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	const q = `INSERT INTO qr_checkins (id, visit_id, visitor_id, check_in_time,
		check_in_location, verified_by, created_at) VALUES (?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.VisitID, c.VisitorID, c.CheckInTime,
		c.CheckInLocation, c.VerifiedBy, c.CreatedAt)
	return err
}

// GetByID returns a single check-in or ErrNotFound.
func (r *CheckInRepo) GetByID(ctx context.Context, id string) (*model.CheckIn, error) {
	const q = `SELECT ` + checkInColumns + ` FROM qr_checkins WHERE id = ?`
	c, err := scanCheckIn(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return c, err
}

// GetOpenByVisit returns the open (not checked out) check-in for a
// visit, or ErrNotFound when the visitor is not currently inside.
func (r *CheckInRepo) GetOpenByVisit(ctx context.Context, visitID string) (*model.CheckIn, error) {
	const q = `SELECT ` + checkInColumns + ` FROM qr_checkins
		WHERE visit_id = ? AND check_out_time IS NULL LIMIT 1`
	c, err := scanCheckIn(r.db.QueryRowContext(ctx, q, visitID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return c, err
}

// Close sets the check-out fields on an open check-in. It returns
// ErrConflict when the row was already closed and ErrNotFound when the
// id does not exist.
func (r *CheckInRepo) Close(ctx context.Context, id string, outTime time.Time, outLocation string) error {
	const q = `UPDATE qr_checkins SET check_out_time = ?, check_out_location = ?
		WHERE id = ? AND check_out_time IS NULL`
	res, err := r.db.ExecContext(ctx, q, outTime, outLocation, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM qr_checkins WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// ListInRange returns check-ins whose entry time falls in [start, end),
// newest first.
func (r *CheckInRepo) ListInRange(ctx context.Context, start, end time.Time) ([]*model.CheckIn, error) {
	const q = `SELECT ` + checkInColumns + ` FROM qr_checkins
		WHERE check_in_time >= ? AND check_in_time < ? ORDER BY check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	return collectCheckIns(rows)
}

// ListRecent returns the most recent check-ins, newest first, capped at
// limit.
func (r *CheckInRepo) ListRecent(ctx context.Context, limit int) ([]*model.CheckIn, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT ` + checkInColumns + ` FROM qr_checkins
		ORDER BY check_in_time DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectCheckIns(rows)
}

// ListByVisitor returns all check-ins for one visitor, newest first.
func (r *CheckInRepo) ListByVisitor(ctx context.Context, visitorID string) ([]*model.CheckIn, error) {
	const q = `SELECT ` + checkInColumns + ` FROM qr_checkins
		WHERE visitor_id = ? ORDER BY check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, q, visitorID)
	if err != nil {
		return nil, err
	}
	return collectCheckIns(rows)
}

// CountOpenInRange counts check-ins in [start, end) that have not
// checked out, i.e. visitors currently inside.
func (r *CheckInRepo) CountOpenInRange(ctx context.Context, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM qr_checkins
		WHERE check_in_time >= ? AND check_in_time < ? AND check_out_time IS NULL`
	var n int
	err := r.db.QueryRowContext(ctx, q, start, end).Scan(&n)
	return n, err
}

// CountInRange counts all check-ins in [start, end).
func (r *CheckInRepo) CountInRange(ctx context.Context, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM qr_checkins
		WHERE check_in_time >= ? AND check_in_time < ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, start, end).Scan(&n)
	return n, err
}

// CountByVisitorInRange counts one visitor's check-ins in [start, end).
func (r *CheckInRepo) CountByVisitorInRange(ctx context.Context, visitorID string, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM qr_checkins
		WHERE visitor_id = ? AND check_in_time >= ? AND check_in_time < ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, visitorID, start, end).Scan(&n)
	return n, err
}
