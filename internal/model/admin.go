package model

import "time"

// Admin roles. Superadmins can additionally create other admin accounts.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// Admin is a back-office account that approves or denies visits.
// Inactive admins cannot log in and are skipped by the daily summary job.
type Admin struct {
	ID           string     // admins.id
	Email        string     // admins.email
	FullName     string     // admins.full_name
	PasswordHash string     // admins.password_hash
	Role         string     // admins.role (ADMIN or SUPERADMIN)
	Department   string     // admins.department
	PushToken    *string    // admins.push_token (nullable)
	IsActive     bool       // admins.is_active
	CreatedAt    time.Time  // admins.created_at
	LastLoginAt  *time.Time // admins.last_login_at (nullable)
}
