package handler

import (
	"net/http"

	"github.com/licenseguard/licenseguard-backend/internal/operator"
	"github.com/licenseguard/licenseguard-backend/internal/registry/service"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// EnrollHandler handles operator login and license enrollment
type EnrollHandler struct {
	registry    *service.RegistryService
	credentials *operator.Credentials
	tokens      *operator.TokenManager
	log         *logger.Logger
}

// NewEnrollHandler creates a new enrollment handler
func NewEnrollHandler(registry *service.RegistryService, credentials *operator.Credentials, tokens *operator.TokenManager, log *logger.Logger) *EnrollHandler {
	return &EnrollHandler{
		registry:    registry,
		credentials: credentials,
		tokens:      tokens,
		log:         log,
	}
}

// LoginRequest is an operator login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/operator/login
func (h *EnrollHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		h.log.Warn().Str("username", req.Username).Msg("operator login rejected")
		httputil.Error(w, err)
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.log.Error().Err(err).Msg("token issuance failed")
		httputil.Error(w, err)
		return
	}

	h.log.Info().Str("username", req.Username).Msg("operator logged in")
	httputil.JSON(w, http.StatusOK, token)
}

// Enroll handles POST /api/v1/licenses (operator token required)
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req service.EnrollRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	operatorID := httputil.GetOperatorID(r.Context())

	rec, err := h.registry.Enroll(r.Context(), req, operatorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}
