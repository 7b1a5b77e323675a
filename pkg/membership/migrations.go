package membership

// Migration returns the DDL for the organizations and organization_members
// tables. Statements are idempotent so the migration can run at every start.
func Migration() string {
	return `
		CREATE TABLE IF NOT EXISTS organizations (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS organization_members (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			organization_id BIGINT NOT NULL REFERENCES organizations(id),
			role VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL,
			invited_by BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT organization_members_pair UNIQUE (user_id, organization_id)
		);

		CREATE INDEX IF NOT EXISTS idx_organization_members_user_id ON organization_members(user_id);
		CREATE INDEX IF NOT EXISTS idx_organization_members_org_status ON organization_members(organization_id, status);
	`
}
