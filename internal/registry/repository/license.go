// Package repository persists enrolled licenses. Records are insert-only:
// no update or delete path exists by design of the registry contract.
package repository

import (
	"context"
	"database/sql"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/database"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
)

// LicenseRepository handles license persistence
type LicenseRepository struct {
	db *database.DB
}

// NewLicenseRepository creates a new license repository
func NewLicenseRepository(db *database.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// Create inserts a new license record. The dl_number unique constraint is
// the authority on duplicates: a racing insert loses here with a Conflict
// even when the application-level duplicate check passed.
func (r *LicenseRepository) Create(ctx context.Context, rec *domain.LicenseRecord) error {
	query := `
		INSERT INTO licenses (dl_number, name, valid_till, image_path)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		rec.DLNumber,
		rec.Name,
		rec.ValidTill,
		rec.ImagePath,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByNumber gets a license by its number
func (r *LicenseRepository) GetByNumber(ctx context.Context, dlNumber string) (*domain.LicenseRecord, error) {
	var rec domain.LicenseRecord
	query := `
		SELECT id, dl_number, name, valid_till, image_path, created_at
		FROM licenses
		WHERE dl_number = $1
	`

	err := r.db.GetContext(ctx, &rec, query, dlNumber)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("license")
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// Match looks up a license by exact number, partial (case-sensitive)
// holder-name containment and exact expiry date. The expiry argument is
// cast server-side, so a non-date string fails the query rather than
// matching anything.
func (r *LicenseRepository) Match(ctx context.Context, dlNumber, name, validTill string) (*domain.LicenseRecord, error) {
	var rec domain.LicenseRecord
	query := `
		SELECT id, dl_number, name, valid_till, image_path, created_at
		FROM licenses
		WHERE dl_number = $1 AND name LIKE '%' || $2 || '%' AND valid_till = $3::date
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &rec, query, dlNumber, name, validTill)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("license")
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
