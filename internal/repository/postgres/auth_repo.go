// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"mealdesk-service/internal/domain/auth"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthRepository struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

const staffColumns = `id, branch_id, email, password_hash, name, roles,
	is_active, last_login_at, created_at, updated_at`

// FindByEmail loads an active staff identity for login.
func (r *AuthRepository) FindByEmail(ctx context.Context, email string) (*auth.StaffIdentity, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_identities WHERE email = $1 AND is_active = TRUE`
	return scanStaff(r.db.QueryRow(ctx, query, email))
}

// FindByID loads a staff identity by primary key.
func (r *AuthRepository) FindByID(ctx context.Context, identityID int64) (*auth.StaffIdentity, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_identities WHERE id = $1`
	return scanStaff(r.db.QueryRow(ctx, query, identityID))
}

// TouchLastLogin records a successful login time, best effort.
func (r *AuthRepository) TouchLastLogin(ctx context.Context, identityID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE staff_identities SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`,
		identityID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}

func scanStaff(row pgx.Row) (*auth.StaffIdentity, error) {
	var s auth.StaffIdentity
	err := row.Scan(
		&s.ID, &s.BranchID, &s.Email, &s.PasswordHash, &s.Name, &s.Roles,
		&s.IsActive, &s.LastLoginAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff identity: %w", err)
	}
	return &s, nil
}
