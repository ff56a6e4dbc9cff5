package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// PaddleEngine sends crops to a PaddleOCR inference service over HTTP.
// The service runs with angle classification enabled, so orientation
// correction happens server-side.
type PaddleEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewPaddleEngine creates a client for the given PaddleOCR service URL
func NewPaddleEngine(baseURL string, timeout time.Duration) *PaddleEngine {
	return &PaddleEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (e *PaddleEngine) Name() string { return "paddleocr" }

// Recognize posts the crop to the OCR service and returns its lines in
// service-reported order. An empty line list with a nil error means the
// service found no text, which is the condition that triggers fallback.
func (e *PaddleEngine) Recognize(ctx context.Context, img image.Image) ([]Line, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "crop.png")
	if err != nil {
		return nil, fmt.Errorf("paddle: create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("paddle: encode crop: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("paddle: close multipart writer: %w", err)
	}

	url := e.baseURL + "/api/v1/ocr"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("paddle: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paddle: ocr service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paddle: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paddle: ocr service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var ocrResp paddleResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, fmt.Errorf("paddle: parse response: %w", err)
	}

	lines := make([]Line, len(ocrResp.Lines))
	for i, l := range ocrResp.Lines {
		lines[i] = Line{Text: l.Text, Confidence: l.Confidence}
	}
	return lines, nil
}

// paddleResponse mirrors the OCR service's response model
type paddleResponse struct {
	Lines []paddleLine `json:"lines"`
}

type paddleLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
