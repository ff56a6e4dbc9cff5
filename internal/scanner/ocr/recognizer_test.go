package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/licenseguard/licenseguard-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
)

// fakeEngine returns scripted output for recognizer tests
type fakeEngine struct {
	name   string
	lines  []Line
	err    error
	called bool
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) ([]Line, error) {
	f.called = true
	return f.lines, f.err
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func testLogger() *logger.Logger {
	return logger.New("test", "test")
}

func TestRecognizer_JoinsConfidentPrimaryLines(t *testing.T) {
	primary := &fakeEngine{name: "primary", lines: []Line{
		{Text: "JANE", Confidence: 0.95},
		{Text: "smudge", Confidence: 0.4},
		{Text: "DOE", Confidence: 0.88},
	}}
	fallback := &fakeEngine{name: "fallback"}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "JANE DOE", got)
	assert.False(t, fallback.called, "fallback should not run when primary returned lines")
}

func TestRecognizer_LowConfidenceDoesNotTriggerFallback(t *testing.T) {
	// The primary returned lines, they are just all below the floor. That
	// yields an empty string, not a fallback run.
	primary := &fakeEngine{name: "primary", lines: []Line{
		{Text: "noise", Confidence: 0.1},
	}}
	fallback := &fakeEngine{name: "fallback", lines: []Line{{Text: "FALLBACK", Confidence: 1}}}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "", got)
	assert.False(t, fallback.called)
}

func TestRecognizer_EmptyPrimaryTriggersFallback(t *testing.T) {
	primary := &fakeEngine{name: "primary"}
	fallback := &fakeEngine{name: "fallback", lines: []Line{{Text: "DL-0420", Confidence: 1}}}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "DL-0420", got)
	assert.True(t, fallback.called)
}

func TestRecognizer_PrimaryErrorTriggersFallback(t *testing.T) {
	primary := &fakeEngine{name: "primary", err: errors.New("service unavailable")}
	fallback := &fakeEngine{name: "fallback", lines: []Line{{Text: "DL-0420", Confidence: 1}}}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "DL-0420", got)
}

func TestRecognizer_BothEnginesEmptyYieldsEmptyString(t *testing.T) {
	primary := &fakeEngine{name: "primary"}
	fallback := &fakeEngine{name: "fallback"}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "", got)
}

func TestRecognizer_FallbackErrorYieldsEmptyString(t *testing.T) {
	primary := &fakeEngine{name: "primary"}
	fallback := &fakeEngine{name: "fallback", err: errors.New("tesseract missing")}

	r := NewRecognizer(primary, fallback, 0.7, testLogger())
	got := r.Recognize(context.Background(), testImage())

	assert.Equal(t, "", got)
}

func TestJoinConfident_FloorIsStrict(t *testing.T) {
	lines := []Line{
		{Text: "at-floor", Confidence: 0.7},
		{Text: "above", Confidence: 0.71},
	}

	assert.Equal(t, "above", JoinConfident(lines, 0.7))
}
