// Package handler exposes the scan, verify, enrollment and stream
// endpoints.
package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

const maxUploadSize = 16 << 20 // 16MB

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ScanService is the image-facing service behind the scan endpoints
type ScanService interface {
	DetectAndCrop(ctx context.Context, imageBytes []byte, source string) (*domain.DetectResult, error)
	VerifyCrop(ctx context.Context, cropPath string) (*domain.PipelineResult, error)
}

// ScanHandler handles detection and verification requests
type ScanHandler struct {
	scanner ScanService
	log     *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanner ScanService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scanner: scanner,
		log:     log,
	}
}

// Detect handles POST /api/v1/detect
// Accepts a multipart form with a "file" image field.
func (h *ScanHandler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		httputil.Error(w, errors.BadRequest("unsupported file type, expected png, jpg or jpeg"))
		return
	}

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to read uploaded file"))
		return
	}

	result, err := h.scanner.DetectAndCrop(r.Context(), imageBytes, "upload")
	if err != nil {
		h.log.Error().Err(err).Msg("upload detection failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// DetectFrame handles POST /api/v1/detect/frame
// Accepts a single encoded frame as the raw request body.
func (h *ScanHandler) DetectFrame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	imageBytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.Error(w, errors.BadRequest("failed to read frame body"))
		return
	}
	if len(imageBytes) == 0 {
		httputil.Error(w, errors.BadRequest("empty frame body"))
		return
	}

	result, err := h.scanner.DetectAndCrop(r.Context(), imageBytes, "frame")
	if err != nil {
		h.log.Error().Err(err).Msg("frame detection failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// VerifyRequest asks for a verify pass over a previously produced crop
type VerifyRequest struct {
	CropPath string `json:"crop_path" validate:"required"`
}

// Verify handles POST /api/v1/verify
func (h *ScanHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.scanner.VerifyCrop(r.Context(), req.CropPath)
	if err != nil {
		h.log.Error().Err(err).Str("crop_path", req.CropPath).Msg("verification failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
