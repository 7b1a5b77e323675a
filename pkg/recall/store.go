package recall

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageStore is the persistence contract for messages.
type MessageStore interface {
	// Get returns the message, or (nil, nil) when absent.
	Get(ctx context.Context, id int64) (*Message, error)

	// Create persists a new message and fills in ID and CreatedAt.
	Create(ctx context.Context, m *Message) error

	// MarkRecalled transitions the message from scope none to the given
	// scope. It reports false when the message was no longer in scope
	// none, so concurrent recalls cannot double-apply.
	MarkRecalled(ctx context.Context, id int64, scope Scope, at time.Time) (bool, error)
}

// PostgresMessageStore implements MessageStore on PostgreSQL.
type PostgresMessageStore struct {
	db *sql.DB
}

// NewPostgresMessageStore creates a Postgres-backed message store.
func NewPostgresMessageStore(db *sql.DB) *PostgresMessageStore {
	return &PostgresMessageStore{db: db}
}

// Migration returns the DDL for the messages table.
func Migration() string {
	return `
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL,
			sender_id BIGINT NOT NULL,
			body TEXT NOT NULL,
			recall_scope VARCHAR(8) NOT NULL DEFAULT 'none',
			recalled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
	`
}

func (s *PostgresMessageStore) Get(ctx context.Context, id int64) (*Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, body, recall_scope, recalled_at, created_at
		FROM messages
		WHERE id = $1
	`
	m := &Message{}
	var recalledAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Scope, &recalledAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if recalledAt.Valid {
		m.RecalledAt = &recalledAt.Time
	}
	return m, nil
}

func (s *PostgresMessageStore) Create(ctx context.Context, m *Message) error {
	if m.Scope == "" {
		m.Scope = ScopeNone
	}
	query := `
		INSERT INTO messages (conversation_id, sender_id, body, recall_scope)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, m.ConversationID, m.SenderID, m.Body, m.Scope).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (s *PostgresMessageStore) MarkRecalled(ctx context.Context, id int64, scope Scope, at time.Time) (bool, error) {
	query := `
		UPDATE messages
		SET recall_scope = $1, recalled_at = $2
		WHERE id = $3 AND recall_scope = $4
	`
	result, err := s.db.ExecContext(ctx, query, scope, at, id, ScopeNone)
	if err != nil {
		return false, fmt.Errorf("failed to mark message recalled: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected == 1, nil
}
