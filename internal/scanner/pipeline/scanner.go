package pipeline

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/detector"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/storage"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// CardLocator finds at most one license card on a frame
type CardLocator interface {
	Detect(frame gocv.Mat) domain.CardDetection
}

// CardEmitter publishes qualifying card detections, best effort
type CardEmitter interface {
	CardDetected(ctx context.Context, cropPath string, confidence float64, source string)
}

// Scanner is the image-facing service behind the scan endpoints. It decodes
// uploaded bytes, runs card detection, persists qualifying crops and runs
// the verify pipeline over stored crops.
type Scanner struct {
	cards    CardLocator
	pipeline *Pipeline
	crops    *storage.CropStore
	emitter  CardEmitter
	log      *logger.Logger
}

// NewScanner assembles the scan service
func NewScanner(cards CardLocator, p *Pipeline, crops *storage.CropStore, emitter CardEmitter, log *logger.Logger) *Scanner {
	return &Scanner{
		cards:    cards,
		pipeline: p,
		crops:    crops,
		emitter:  emitter,
		log:      log.WithComponent("scanner"),
	}
}

// DetectAndCrop runs card detection over an encoded image. When the best
// card clears the gate its crop is persisted and the path returned; a frame
// with no qualifying card is a normal non-detection, not an error.
func (s *Scanner) DetectAndCrop(ctx context.Context, imageBytes []byte, source string) (*domain.DetectResult, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, errors.BadRequest("could not decode image")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.BadRequest("could not decode image")
	}

	card := s.cards.Detect(mat)
	if !card.Found {
		return &domain.DetectResult{Detected: false}, nil
	}

	crop, err := detector.CropRegion(mat, card.Box)
	if err != nil {
		return nil, errors.Internal("card crop failed")
	}
	defer crop.Close()

	buf, err := gocv.IMEncode(".jpg", crop)
	if err != nil {
		return nil, errors.Internal("card crop encode failed")
	}
	defer buf.Close()

	path, err := s.crops.Save(buf.GetBytes())
	if err != nil {
		return nil, errors.Internal("card crop persist failed")
	}

	s.log.Info().
		Str("crop_path", path).
		Float64("confidence", card.Confidence).
		Str("source", source).
		Msg("card detected")

	if s.emitter != nil {
		s.emitter.CardDetected(ctx, path, card.Confidence, source)
	}

	return &domain.DetectResult{
		Detected:   true,
		Confidence: card.Confidence,
		CropPath:   path,
	}, nil
}

// VerifyCrop runs the verify pipeline over a previously persisted crop
func (s *Scanner) VerifyCrop(ctx context.Context, cropPath string) (*domain.PipelineResult, error) {
	data, err := s.crops.Read(cropPath)
	if err != nil {
		return nil, errors.NotFound("crop")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Internal("could not decode stored crop")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Internal("could not decode stored crop")
	}

	return s.pipeline.Run(ctx, mat), nil
}
