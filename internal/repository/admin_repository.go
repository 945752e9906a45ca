package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// AdminRepo provides persistence for back-office admin accounts.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns a new AdminRepo bound to the given database.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

const adminColumns = `id, email, full_name, password_hash, role, department,
	push_token, is_active, created_at, last_login_at`

func scanAdmin(s interface{ Scan(...interface{}) error }) (*model.Admin, error) {
	var (
		a         model.Admin
		pushToken sql.NullString
		lastLogin sql.NullTime
	)
	err := s.Scan(
		&a.ID, &a.Email, &a.FullName, &a.PasswordHash, &a.Role, &a.Department,
		&pushToken, &a.IsActive, &a.CreatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if pushToken.Valid && pushToken.String != "" {
		t := pushToken.String
		a.PushToken = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		a.LastLoginAt = &t
	}
	return &a, nil
}

// Create inserts a new admin account. ErrEmailExists is returned for a
// duplicate email.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.CreatedAt = time.Now().UTC()
	const q = `INSERT INTO admins (id, email, full_name, password_hash, role,
		department, is_active, created_at) VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Email, a.FullName, a.PasswordHash, a.Role,
		a.Department, a.IsActive, a.CreatedAt)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// GetByID returns a single admin or ErrNotFound.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins WHERE id = ?`
	a, err := scanAdmin(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// GetByEmail returns an admin by normalized email or ErrNotFound.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT ` + adminColumns + ` FROM admins WHERE email = ? LIMIT 1`
	a, err := scanAdmin(r.db.QueryRowContext(ctx, q, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// ListActive returns all active admins. The daily summary sweep fans
// out one push per entry that carries a token.
func (r *AdminRepo) ListActive(ctx context.Context) ([]*model.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins WHERE is_active = 1 ORDER BY full_name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	admins := make([]*model.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

// TouchLastLogin records a successful login.
func (r *AdminRepo) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// UpdatePushToken stores (or clears, when empty) the admin's device
// token.
func (r *AdminRepo) UpdatePushToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET push_token = NULLIF(?, '') WHERE id = ?`, token, id)
	return err
}
