// Package service implements registry lookups and gated enrollment.
package service

import (
	"context"

	"github.com/licenseguard/licenseguard-backend/internal/registry/events"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/validate"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// LicenseRepository defines the persistence operations the registry needs
type LicenseRepository interface {
	Create(ctx context.Context, rec *domain.LicenseRecord) error
	GetByNumber(ctx context.Context, dlNumber string) (*domain.LicenseRecord, error)
	Match(ctx context.Context, dlNumber, name, validTill string) (*domain.LicenseRecord, error)
}

// RegistryService answers membership questions about enrolled licenses
// and handles operator enrollment.
type RegistryService struct {
	repo    LicenseRepository
	emitter *events.Emitter
	log     *logger.Logger
}

// NewRegistryService creates a new registry service
func NewRegistryService(repo LicenseRepository, emitter *events.Emitter, log *logger.Logger) *RegistryService {
	return &RegistryService{
		repo:    repo,
		emitter: emitter,
		log:     log.WithComponent("registry"),
	}
}

// EnrollRequest carries the fields needed to enroll a license
type EnrollRequest struct {
	DLNumber  string `json:"dl_number" validate:"required,min=1,max=64"`
	Name      string `json:"name" validate:"required,min=1,max=255"`
	ValidTill string `json:"valid_till" validate:"required,datetime=2006-01-02"`
	ImagePath string `json:"image_path,omitempty"`
}

// Verify reports whether a license matching all three extracted fields is
// enrolled. Any lookup failure is treated as "not enrolled": the registry
// answers a membership question, and an unreachable database means the
// membership cannot be confirmed. The error is logged, never surfaced.
func (s *RegistryService) Verify(ctx context.Context, dlNumber, name, validTill string) (bool, *domain.LicenseRecord) {
	if dlNumber == "" {
		return false, nil
	}

	rec, err := s.repo.Match(ctx, dlNumber, name, validTill)
	if err != nil {
		if errors.KindOf(err) != errors.KindNotFound {
			s.log.Warn().Err(err).Str("dl_number", dlNumber).Msg("registry lookup failed, treating as not enrolled")
		}
		return false, nil
	}

	return true, rec
}

// Enroll adds a license to the registry. A license number can only be
// enrolled once; re-submitting the same number is rejected with a conflict,
// which makes retried submissions safe.
func (s *RegistryService) Enroll(ctx context.Context, req EnrollRequest, enrolledBy string) (*domain.LicenseRecord, error) {
	validTill, err := validate.ParseExpiry(req.ValidTill)
	if err != nil {
		return nil, errors.Validation(map[string]string{
			"valid_till": "must be a date in YYYY-MM-DD format",
		})
	}

	if existing, err := s.repo.GetByNumber(ctx, req.DLNumber); err == nil && existing != nil {
		return nil, errors.Conflict("a license with this number already exists")
	} else if err != nil && errors.KindOf(err) != errors.KindNotFound {
		return nil, err
	}

	rec := &domain.LicenseRecord{
		DLNumber:  req.DLNumber,
		Name:      req.Name,
		ValidTill: validTill,
		ImagePath: req.ImagePath,
	}

	// The unique constraint still backstops a race between the check
	// above and this insert.
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("dl_number", rec.DLNumber).
		Str("enrolled_by", enrolledBy).
		Msg("license enrolled")

	if s.emitter != nil {
		s.emitter.LicenseEnrolled(ctx, rec, enrolledBy)
	}

	return rec, nil
}
