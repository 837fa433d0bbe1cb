package models

import "time"

// User roles. The back office distinguishes only administrators and cashiers.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// IsValidRole checks if the provided role string is a known role.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCashier
}

// User is a back-office account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username" binding:"required"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
