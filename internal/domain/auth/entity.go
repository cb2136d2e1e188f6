// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

// StaffIdentity is an admin or kitchen login for one branch. Customers never
// authenticate; they are addressed by order tokens.
type StaffIdentity struct {
	ID           int64        `json:"id" db:"id"`
	BranchID     int64        `json:"branch_id" db:"branch_id"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Name         string       `json:"name" db:"name"`
	Roles        []string     `json:"roles" db:"roles"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the identity carries a role.
func (s *StaffIdentity) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
