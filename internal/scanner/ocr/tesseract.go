package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine is the in-process fallback engine. It runs in single
// uniform text block mode, matching how the fallback was tuned for field
// crops that defeat the primary engine entirely.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine creates a Tesseract fallback engine for the given
// language code (e.g. "eng").
func NewTesseractEngine(language string) *TesseractEngine {
	return &TesseractEngine{language: language}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs Tesseract over the crop and returns its raw output as a
// single line. Per-line confidence is not reported in this mode; the
// recognizer uses fallback output unfiltered.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("tesseract: encode crop: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("tesseract: set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("tesseract: set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract: set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract: recognition failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []Line{{Text: text, Confidence: 1}}, nil
}
