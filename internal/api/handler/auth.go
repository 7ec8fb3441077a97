// internal/api/handler/auth.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/covergrid/pulse/internal/api/middleware"
	"github.com/covergrid/pulse/internal/api/response"
	"github.com/covergrid/pulse/internal/auth"
	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/metrics"
	"go.uber.org/zap"
)

// AuthHandler serves login and session endpoints.
type AuthHandler struct {
	svc     *auth.Service
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewAuthHandler creates an auth handler. reg may be nil.
func NewAuthHandler(svc *auth.Service, reg *metrics.Registry, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, metrics: reg, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Login authenticates against the Users sheet and demo accounts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, err))
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("email and password required")))
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		outcome := "error"
		if errors.Is(err, core.ErrInvalidCredentials) {
			outcome = "denied"
		}
		h.recordLogin(outcome)
		h.logger.Info("login rejected", zap.String("email", req.Email))
		response.Error(w, response.StatusFor(err), err)
		return
	}

	h.recordLogin("ok")
	response.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me returns the claims of the authenticated session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, core.ErrTokenInvalid)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"email": claims.Subject,
		"name":  claims.Name,
		"role":  claims.Role,
	})
}

func (h *AuthHandler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}
