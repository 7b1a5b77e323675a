package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

// Store is the persistence contract for user accounts.
type Store interface {
	// Get returns the user, or (nil, nil) when absent. Soft-deleted users
	// are still returned; callers decide how to treat them.
	Get(ctx context.Context, id int64) (*User, error)

	// Create persists a new account and fills in ID and timestamps.
	Create(ctx context.Context, u *User) error

	// UpdateProfile applies the non-nil fields of the update.
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error)

	// SoftDelete marks the account deleted. It reports false when no live
	// account matched.
	SoftDelete(ctx context.Context, id int64) (bool, error)

	// SystemRole returns the user's platform-level role, or nil.
	SystemRole(ctx context.Context, userID int64) (*roles.ID, error)
}

const userColumns = "id, username, email, system_role, current_organization_id, deleted_at, created_at, updated_at"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed user store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migration returns the DDL for the users table.
func Migration() string {
	return `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL,
			system_role VARCHAR(32),
			current_organization_id BIGINT,
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_current_organization_id ON users(current_organization_id);
	`
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, system_role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.SystemRole).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET username = COALESCE($1, username),
		    email = COALESCE($2, email),
		    updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING %s
	`, userColumns)
	u, err := scanUser(s.db.QueryRowContext(ctx, query, update.Username, update.Email, id))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return u, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) SystemRole(ctx context.Context, userID int64) (*roles.ID, error) {
	var role sql.NullString
	query := `SELECT system_role FROM users WHERE id = $1 AND deleted_at IS NULL`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read system role: %w", err)
	}
	if !role.Valid {
		return nil, nil
	}
	id := roles.ID(role.String)
	return &id, nil
}

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var systemRole sql.NullString
	var currentOrg sql.NullInt64
	var deletedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &systemRole, &currentOrg,
		&deletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if systemRole.Valid {
		role := roles.ID(systemRole.String)
		u.SystemRole = &role
	}
	if currentOrg.Valid {
		u.CurrentOrganizationID = &currentOrg.Int64
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return u, nil
}
