package store

import (
	"context"
	"fmt"
)

// schema is applied idempotently on startup. The requester table is owned by
// the identity service; it is created here so a fresh database is usable.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS requesters (
		id          BIGSERIAL PRIMARY KEY,
		first_name  TEXT NOT NULL DEFAULT '',
		last_name   TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		gender      TEXT NOT NULL CHECK (gender IN ('Male', 'Female')),
		scope_level INTEGER NOT NULL DEFAULT 0 CHECK (scope_level BETWEEN 0 AND 4),
		role        TEXT NOT NULL DEFAULT 'standard' CHECK (role IN ('standard', 'administrator')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS requesters_email_idx ON requesters (email) WHERE email <> ''`,
	`CREATE INDEX IF NOT EXISTS requesters_role_idx ON requesters (role)`,

	`CREATE TABLE IF NOT EXISTS catalog_items (
		id           BIGSERIAL PRIMARY KEY,
		category     TEXT NOT NULL CHECK (category IN ('PE', 'Academic', 'Corporate', 'Department Shirt')),
		item_kind    TEXT NOT NULL CHECK (item_kind IN ('Top', 'Bottom')),
		size         TEXT NOT NULL CHECK (size IN ('XS', 'S', 'M', 'L', 'XL', 'XXL')),
		gender       TEXT NOT NULL CHECK (gender IN ('Male', 'Female', 'Unisex')),
		scope_level  INTEGER CHECK (scope_level BETWEEN 1 AND 4),
		availability TEXT NOT NULL DEFAULT 'Available' CHECK (availability IN ('Available', 'Unavailable')),
		active_state TEXT NOT NULL DEFAULT 'Active' CHECK (active_state IN ('Active', 'Inactive')),
		image_ref    TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS catalog_items_identity_idx
		ON catalog_items (category, item_kind, gender, COALESCE(scope_level, 0), size)`,

	`CREATE TABLE IF NOT EXISTS requests (
		id              BIGSERIAL PRIMARY KEY,
		requester_id    BIGINT NOT NULL REFERENCES requesters (id) ON DELETE RESTRICT,
		catalog_item_id BIGINT NOT NULL REFERENCES catalog_items (id) ON DELETE RESTRICT,
		category        TEXT NOT NULL,
		item_kind       TEXT NOT NULL,
		proof_ref       TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL CHECK (status IN ('Pending', 'Approved', 'Rejected', 'Completed', 'Cancelled')),
		reason          TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeRequestIndex + `
		ON requests (requester_id, category, item_kind) WHERE status IN ('Pending', 'Approved')`,
	`CREATE INDEX IF NOT EXISTS requests_requester_idx ON requests (requester_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id              BIGSERIAL PRIMARY KEY,
		recipient_id    BIGINT NOT NULL REFERENCES requesters (id) ON DELETE CASCADE,
		message         TEXT NOT NULL,
		catalog_item_id BIGINT REFERENCES catalog_items (id) ON DELETE SET NULL,
		is_read         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (recipient_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS notifications_created_idx ON notifications (created_at)`,
}

// EnsureSchema creates tables and indexes that do not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
