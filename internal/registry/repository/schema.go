package repository

import (
	"context"

	"github.com/licenseguard/licenseguard-backend/pkg/database"
)

const createLicensesTable = `
	CREATE TABLE IF NOT EXISTS licenses (
		id BIGSERIAL PRIMARY KEY,
		dl_number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		valid_till DATE NOT NULL,
		image_path TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// EnsureSchema creates the licenses table if it does not exist yet.
// Called once at service startup.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	_, err := db.ExecContext(ctx, createLicensesTable)
	return err
}
