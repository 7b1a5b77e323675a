package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store is the persistence contract for tasks.
type Store interface {
	// Get returns the task, or (nil, nil) when absent.
	Get(ctx context.Context, id int64) (*Task, error)

	// Create persists a new task and fills in ID, Status and timestamps.
	Create(ctx context.Context, t *Task) error

	// Update applies the non-nil fields of the update.
	Update(ctx context.Context, id int64, update TaskUpdate) (*Task, error)

	// Delete removes the task. It reports false when no row matched.
	Delete(ctx context.Context, id int64) (bool, error)

	// Complete marks the task completed at the given time.
	Complete(ctx context.Context, id int64, at time.Time) (*Task, error)

	// Reassign changes the assignee. A nil assignee unassigns the task.
	Reassign(ctx context.Context, id int64, assignee *int64) (*Task, error)
}

const taskColumns = "id, organization_id, creator_id, assigned_to, title, description, status, completed_at, created_at, updated_at"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed task store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migration returns the DDL for the tasks table.
func Migration() string {
	return `
		CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			organization_id BIGINT NOT NULL,
			creator_id BIGINT NOT NULL,
			assigned_to BIGINT,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'open',
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_organization_id ON tasks(organization_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
	`
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	return scanTask(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) Create(ctx context.Context, t *Task) error {
	if t.Status == "" {
		t.Status = StatusOpen
	}
	query := `
		INSERT INTO tasks (organization_id, creator_id, assigned_to, title, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		t.OrganizationID, t.CreatorID, t.AssignedTo, t.Title, t.Description, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, update TaskUpdate) (*Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING %s
	`, taskColumns)
	return scanTask(s.db.QueryRowContext(ctx, query, update.Title, update.Description, id))
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id int64, at time.Time) (*Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks
		SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING %s
	`, taskColumns)
	return scanTask(s.db.QueryRowContext(ctx, query, StatusCompleted, at, id))
}

func (s *PostgresStore) Reassign(ctx context.Context, id int64, assignee *int64) (*Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks
		SET assigned_to = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, taskColumns)
	return scanTask(s.db.QueryRowContext(ctx, query, assignee, id))
}

func scanTask(row *sql.Row) (*Task, error) {
	t := &Task{}
	var assignedTo sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(&t.ID, &t.OrganizationID, &t.CreatorID, &assignedTo, &t.Title,
		&t.Description, &t.Status, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}
