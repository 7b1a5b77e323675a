package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresEmitter persists audit events to the audit_events table.
type PostgresEmitter struct {
	db *sql.DB
}

// NewPostgresEmitter creates a Postgres-backed audit sink.
func NewPostgresEmitter(db *sql.DB) *PostgresEmitter {
	return &PostgresEmitter{db: db}
}

// Migration returns the DDL for the audit_events table.
func Migration() string {
	return `
		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			actor_id BIGINT NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(255) NOT NULL,
			organization_id BIGINT,
			before_state JSONB,
			after_state JSONB,
			request_id VARCHAR(64),
			reason VARCHAR(128)
		);

		CREATE INDEX IF NOT EXISTS idx_audit_events_actor_id ON audit_events(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_resource ON audit_events(resource_type, resource_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_organization_id ON audit_events(organization_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	`
}

func (e *PostgresEmitter) Emit(ctx context.Context, event *Event) error {
	beforeJSON, err := json.Marshal(event.Before)
	if err != nil {
		return fmt.Errorf("failed to marshal before state: %w", err)
	}
	afterJSON, err := json.Marshal(event.After)
	if err != nil {
		return fmt.Errorf("failed to marshal after state: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, timestamp, actor_id, action, resource_type, resource_id,
		                          organization_id, before_state, after_state, request_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = e.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.ActorID,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.OrganizationID,
		beforeJSON,
		afterJSON,
		nullableString(event.RequestID),
		nullableString(event.Reason),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (e *PostgresEmitter) Close() error { return nil }

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
