package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

const membershipColumns = "id, user_id, organization_id, role, status, invited_by, created_at, updated_at"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed membership store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID, orgID int64) (*Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM organization_members
		WHERE user_id = $1 AND organization_id = $2
	`, membershipColumns)
	return scanMembership(s.db.QueryRowContext(ctx, query, userID, orgID))
}

func (s *PostgresStore) ListApproved(ctx context.Context, userID int64) ([]*Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM organization_members
		WHERE user_id = $1 AND status = $2
		ORDER BY organization_id
	`, membershipColumns)
	rows, err := s.db.QueryContext(ctx, query, userID, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*Membership
	for rows.Next() {
		m, err := scanMembershipRow(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Get(ctx context.Context, userID, orgID int64) (*Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM organization_members
		WHERE user_id = $1 AND organization_id = $2
	`, membershipColumns)
	return scanMembership(t.tx.QueryRowContext(ctx, query, userID, orgID))
}

func (t *pgTx) GetForUpdate(ctx context.Context, userID, orgID int64) (*Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM organization_members
		WHERE user_id = $1 AND organization_id = $2
		FOR UPDATE
	`, membershipColumns)
	return scanMembership(t.tx.QueryRowContext(ctx, query, userID, orgID))
}

func (t *pgTx) Upsert(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO organization_members (user_id, organization_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT organization_members_pair
		DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status,
		              invited_by = EXCLUDED.invited_by, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, query,
		m.UserID, m.OrganizationID, m.Role, m.Status, m.InvitedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, userID, orgID int64) error {
	query := `DELETE FROM organization_members WHERE user_id = $1 AND organization_id = $2`
	if _, err := t.tx.ExecContext(ctx, query, userID, orgID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

func (t *pgTx) CurrentOrganization(ctx context.Context, userID int64) (*int64, error) {
	var current sql.NullInt64
	query := `SELECT current_organization_id FROM users WHERE id = $1`
	if err := t.tx.QueryRowContext(ctx, query, userID).Scan(&current); err != nil {
		return nil, fmt.Errorf("failed to read current organization: %w", err)
	}
	if !current.Valid {
		return nil, nil
	}
	return &current.Int64, nil
}

func (t *pgTx) SetCurrentOrganization(ctx context.Context, userID int64, orgID *int64) error {
	query := `UPDATE users SET current_organization_id = $1, updated_at = NOW() WHERE id = $2`
	result, err := t.tx.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to set current organization: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

func (t *pgTx) CountApprovedWithRole(ctx context.Context, orgID int64, role roles.ID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM organization_members
		WHERE organization_id = $1 AND status = $2 AND role = $3
	`
	if err := t.tx.QueryRowContext(ctx, query, orgID, StatusApproved, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count approved members: %w", err)
	}
	return count, nil
}

func (t *pgTx) ExpirePending(ctx context.Context, cutoff time.Time) ([]ExpiredRequest, error) {
	query := `
		UPDATE organization_members
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3
		RETURNING user_id, organization_id, role
	`
	rows, err := t.tx.QueryContext(ctx, query, StatusRejected, StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to expire pending requests: %w", err)
	}
	defer rows.Close()

	var expired []ExpiredRequest
	for rows.Next() {
		var e ExpiredRequest
		if err := rows.Scan(&e.UserID, &e.OrganizationID, &e.Role); err != nil {
			return nil, fmt.Errorf("failed to scan expired request: %w", err)
		}
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired requests: %w", err)
	}
	return expired, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(row *sql.Row) (*Membership, error) {
	m, err := scanMembershipRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func scanMembershipRow(row rowScanner) (*Membership, error) {
	m := &Membership{}
	var invitedBy sql.NullInt64
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status,
		&invitedBy, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	if invitedBy.Valid {
		m.InvitedBy = &invitedBy.Int64
	}
	return m, nil
}
