// Package ocr converts field crops to text using a primary OCR engine with
// a fallback engine for frames the primary cannot read at all.
package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// Line is one recognized text line with its engine-reported confidence.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine is a single OCR backend. An empty line slice with a nil error
// means the engine genuinely found no text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Line, error)
}

// Recognizer runs the primary engine and falls back to the secondary only
// when the primary yields no lines at all. Low-confidence primary output
// does not trigger the fallback; those lines are simply dropped from the
// joined result.
type Recognizer struct {
	primary   Engine
	fallback  Engine
	lineFloor float64
	log       *logger.Logger
}

// NewRecognizer creates a recognizer with the given engines and per-line
// confidence floor.
func NewRecognizer(primary, fallback Engine, lineFloor float64, log *logger.Logger) *Recognizer {
	return &Recognizer{
		primary:   primary,
		fallback:  fallback,
		lineFloor: lineFloor,
		log:       log.WithComponent("recognizer"),
	}
}

// Recognize extracts raw text from a field crop. Absence of text is not an
// error; the result is an empty string and downstream parsing fails closed.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) string {
	pre := Preprocess(img)

	lines, err := r.primary.Recognize(ctx, pre)
	if err != nil {
		r.log.Warn().Err(err).Str("engine", r.primary.Name()).Msg("primary OCR failed")
	}

	if err == nil && len(lines) > 0 {
		return JoinConfident(lines, r.lineFloor)
	}

	fbLines, fbErr := r.fallback.Recognize(ctx, pre)
	if fbErr != nil {
		r.log.Warn().Err(fbErr).Str("engine", r.fallback.Name()).Msg("fallback OCR failed")
		return ""
	}

	// Fallback output is used raw, without the confidence floor.
	parts := make([]string, 0, len(fbLines))
	for _, l := range fbLines {
		if l.Text != "" {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, " ")
}

// JoinConfident space-joins lines above the confidence floor, in engine
// order.
func JoinConfident(lines []Line, floor float64) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Confidence > floor && l.Text != "" {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, " ")
}
