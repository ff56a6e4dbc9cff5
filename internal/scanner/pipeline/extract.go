package pipeline

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/detector"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// FieldLocator finds field sub-regions within a card crop
type FieldLocator interface {
	Detect(card gocv.Mat) map[domain.FieldName]domain.FieldRegion
}

// TextRecognizer converts a field crop to raw text
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) string
}

// Extractor is the image half of the pipeline: it locates field regions on
// a card crop and OCRs each one.
type Extractor struct {
	fields     FieldLocator
	recognizer TextRecognizer
	log        *logger.Logger
}

// NewExtractor creates an extractor from a field locator and OCR recognizer
func NewExtractor(fields FieldLocator, recognizer TextRecognizer, log *logger.Logger) *Extractor {
	return &Extractor{
		fields:     fields,
		recognizer: recognizer,
		log:        log.WithComponent("extractor"),
	}
}

// Extract returns raw OCR text per detected field. Fields whose crop or
// OCR fails are left out of the map rather than aborting the pass.
func (e *Extractor) Extract(ctx context.Context, card gocv.Mat) map[domain.FieldName]string {
	raw := make(map[domain.FieldName]string)

	for field, region := range e.fields.Detect(card) {
		crop, err := detector.CropRegion(card, region.Box)
		if err != nil {
			e.log.Warn().Err(err).Str("field", string(field)).Msg("field crop failed")
			continue
		}

		img, err := crop.ToImage()
		crop.Close()
		if err != nil {
			e.log.Warn().Err(err).Str("field", string(field)).Msg("field crop conversion failed")
			continue
		}

		raw[field] = e.recognizer.Recognize(ctx, img)
	}

	return raw
}

// Pipeline is the full verify path over a card crop
type Pipeline struct {
	extractor *Extractor
	verifier  *Verifier
}

// New assembles a pipeline from its two halves
func New(extractor *Extractor, verifier *Verifier) *Pipeline {
	return &Pipeline{extractor: extractor, verifier: verifier}
}

// Run performs one verify pass over a card crop
func (p *Pipeline) Run(ctx context.Context, card gocv.Mat) *domain.PipelineResult {
	raw := p.extractor.Extract(ctx, card)
	return p.verifier.Verify(ctx, raw)
}
