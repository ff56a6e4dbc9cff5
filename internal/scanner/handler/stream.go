package handler

import (
	"net/http"

	"github.com/licenseguard/licenseguard-backend/internal/stream"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// SessionFactory creates a fresh stream session per connection
type SessionFactory func() *stream.Session

// StreamHandler serves the live MJPEG feed
type StreamHandler struct {
	newSession SessionFactory
	log        *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(newSession SessionFactory, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		newSession: newSession,
		log:        log,
	}
}

// Feed handles GET /api/v1/stream. Each connection gets its own session;
// the capture device is held for the lifetime of the connection and
// released when the client disconnects.
func (h *StreamHandler) Feed(w http.ResponseWriter, r *http.Request) {
	session := h.newSession()

	if err := session.Open(); err != nil {
		h.log.Error().Err(err).Msg("failed to open stream session")
		httputil.Error(w, errors.Internal("capture device unavailable"))
		return
	}
	defer session.Close()

	h.log.Info().Str("session_id", session.ID).Msg("stream session started")

	if err := session.Serve(w, r); err != nil {
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("stream session failed")
		return
	}

	h.log.Info().Str("session_id", session.ID).Msg("stream session ended")
}
