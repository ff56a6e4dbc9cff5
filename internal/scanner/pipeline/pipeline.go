// Package pipeline orchestrates one verify pass over a card crop: field
// detection, OCR, normalization, expiry validation and the registry
// membership check.
package pipeline

import (
	"context"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/normalize"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/validate"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// Registry answers license membership questions
type Registry interface {
	Verify(ctx context.Context, dlNumber, name, validTill string) (bool, *domain.LicenseRecord)
}

// Emitter publishes verify outcomes, best effort
type Emitter interface {
	LicenseVerified(ctx context.Context, dlNumber string, isValid, existsInDB bool, outcome domain.Outcome)
}

// Verifier turns raw per-field OCR text into a PipelineResult. It is the
// pure half of the pipeline; image handling lives in Extractor.
type Verifier struct {
	registry Registry
	emitter  Emitter
	log      *logger.Logger
}

// NewVerifier creates a verifier backed by the given registry
func NewVerifier(registry Registry, emitter Emitter, log *logger.Logger) *Verifier {
	return &Verifier{
		registry: registry,
		emitter:  emitter,
		log:      log.WithComponent("pipeline"),
	}
}

// Verify normalizes the raw field texts and evaluates the license.
// Fields the detector or OCR could not produce arrive as missing keys and
// stay empty in the result; every downstream check fails closed on them.
func (v *Verifier) Verify(ctx context.Context, rawFields map[domain.FieldName]string) *domain.PipelineResult {
	data := map[domain.FieldName]string{
		domain.FieldHolderName: "",
		domain.FieldDLNumber:   "",
		domain.FieldValidTill:  "",
	}

	for field, raw := range rawFields {
		if !domain.KnownField(field) {
			continue
		}
		res := normalize.Clean(raw)
		data[field] = res.Text

		for _, shape := range res.UnparsableDates {
			v.log.Debug().
				Str("field", string(field)).
				Str("value", shape).
				Msg("date-shaped text did not parse")
		}
	}

	isValid := validate.IsCurrentlyValid(data[domain.FieldValidTill])

	exists, record := v.registry.Verify(ctx,
		data[domain.FieldDLNumber],
		data[domain.FieldHolderName],
		data[domain.FieldValidTill],
	)

	result := &domain.PipelineResult{
		LicenseData: data,
		IsValid:     isValid,
		ExistsInDB:  exists,
		DBDetails:   record,
		Outcome:     domain.ClassifyOutcome(isValid, exists),
	}

	v.log.Info().
		Str("dl_number", data[domain.FieldDLNumber]).
		Bool("is_valid", isValid).
		Bool("exists_in_db", exists).
		Str("outcome", string(result.Outcome)).
		Msg("verify pass complete")

	if v.emitter != nil {
		v.emitter.LicenseVerified(ctx, data[domain.FieldDLNumber], isValid, exists, result.Outcome)
	}

	return result
}
