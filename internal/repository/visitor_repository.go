package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// VisitorRepo provides persistence for visitor profiles. Profile edits
// do not rewrite the denormalized visitor fields on historical visits.
type VisitorRepo struct {
	db *sql.DB
}

// NewVisitorRepo returns a new VisitorRepo bound to the given database.
func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

const visitorColumns = `id, email, full_name, phone, company, photo_url,
	push_token, created_at, updated_at`

func scanVisitor(s interface{ Scan(...interface{}) error }) (*model.Visitor, error) {
	var (
		v         model.Visitor
		photoURL  sql.NullString
		pushToken sql.NullString
	)
	err := s.Scan(
		&v.ID, &v.Email, &v.FullName, &v.Phone, &v.Company, &photoURL,
		&pushToken, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if photoURL.Valid {
		u := photoURL.String
		v.PhotoURL = &u
	}
	if pushToken.Valid && pushToken.String != "" {
		t := pushToken.String
		v.PushToken = &t
	}
	return &v, nil
}

// Create inserts a new visitor profile. ErrEmailExists is returned for a
// duplicate email.
func (r *VisitorRepo) Create(ctx context.Context, v *model.Visitor) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	const q = `INSERT INTO visitors (id, email, full_name, phone, company,
		photo_url, push_token, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		v.ID, v.Email, v.FullName, v.Phone, v.Company,
		v.PhotoURL, v.PushToken, v.CreatedAt, v.UpdatedAt)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// GetByID returns a single visitor or ErrNotFound.
func (r *VisitorRepo) GetByID(ctx context.Context, id string) (*model.Visitor, error) {
	const q = `SELECT ` + visitorColumns + ` FROM visitors WHERE id = ?`
	v, err := scanVisitor(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

// GetByEmail returns a visitor by normalized email or ErrNotFound.
func (r *VisitorRepo) GetByEmail(ctx context.Context, email string) (*model.Visitor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT ` + visitorColumns + ` FROM visitors WHERE email = ? LIMIT 1`
	v, err := scanVisitor(r.db.QueryRowContext(ctx, q, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

// List returns visitor profiles, newest first, capped at limit.
func (r *VisitorRepo) List(ctx context.Context, limit int) ([]*model.Visitor, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + visitorColumns + ` FROM visitors ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	visitors := make([]*model.Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visitors, nil
}

// Search matches visitors whose name, email or company contains the
// term, capped at limit.
func (r *VisitorRepo) Search(ctx context.Context, term string, limit int) ([]*model.Visitor, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + strings.TrimSpace(term) + "%"
	const q = `SELECT ` + visitorColumns + ` FROM visitors
		WHERE full_name LIKE ? OR email LIKE ? OR company LIKE ?
		ORDER BY full_name ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	visitors := make([]*model.Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return visitors, nil
}

// UpdatePushToken stores (or clears, when empty) the device token used
// for push notifications.
func (r *VisitorRepo) UpdatePushToken(ctx context.Context, id, token string) error {
	const q = `UPDATE visitors SET push_token = NULLIF(?, ''), updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, token, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
