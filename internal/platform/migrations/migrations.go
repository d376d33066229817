package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements is the ordered schema. Every statement is idempotent, so Apply is
// safe to run on every startup.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS fleet_users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		institution TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirm_code TEXT NOT NULL DEFAULT '',
		reset_code TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_vessels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		owner_id TEXT NOT NULL REFERENCES fleet_users(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_memberships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES fleet_users(id),
		vessel_id TEXT NOT NULL REFERENCES fleet_vessels(id),
		role TEXT NOT NULL,
		access TEXT NOT NULL,
		invited_by TEXT NOT NULL DEFAULT '',
		joined_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, vessel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_invitations (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		vessel_id TEXT NOT NULL REFERENCES fleet_vessels(id),
		role TEXT NOT NULL,
		code TEXT NOT NULL,
		status TEXT NOT NULL,
		invited_by TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_request_types (
		id TEXT PRIMARY KEY,
		vessel_id TEXT NOT NULL REFERENCES fleet_vessels(id),
		name TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (vessel_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_requests (
		id TEXT PRIMARY KEY,
		vessel_id TEXT NOT NULL REFERENCES fleet_vessels(id),
		type_id TEXT NOT NULL REFERENCES fleet_request_types(id),
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fleet_requests_vessel_created
		ON fleet_requests (vessel_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_fleet_invitations_email_code
		ON fleet_invitations (email, code)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_fleet_invitations_pending
		ON fleet_invitations (vessel_id, lower(email)) WHERE status = 'pending'`,
}

// Apply executes the schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
