package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/models"
	"github.com/bekosirs/bekoctl/internal/server/middleware"
)

// MsgNoActiveAccount is the 401 detail for rejected credentials
const MsgNoActiveAccount = "No active account found with the given credentials"

// TokenHandler issues bearer tokens
type TokenHandler struct {
	accounts *auth.Accounts
	issuer   *auth.TokenIssuer
	metrics  *MetricsHandler
	logger   *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(accounts *auth.Accounts, issuer *auth.TokenIssuer, metrics *MetricsHandler, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		accounts: accounts,
		issuer:   issuer,
		metrics:  metrics,
		logger:   logger,
	}
}

// ObtainToken handles POST /api/token/
func (h *TokenHandler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		h.metrics.IncrementValidationErrors()
		return
	}

	if missing := requireFields(map[string]string{
		"username": req.Username,
		"password": req.Password,
	}); missing != nil {
		h.metrics.IncrementValidationErrors()
		writeFieldErrors(w, missing)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.IncrementLoginFailures()
			writeDetail(w, http.StatusUnauthorized, MsgNoActiveAccount)
			return
		}
		h.logger.Error("Failed to authenticate", "username", req.Username, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	pair, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue tokens", "user_id", user.ID, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementLogins()
	h.logger.Info("Tokens issued", "username", user.Username, "user_id", user.ID)
	writeJSON(w, http.StatusOK, pair)
}
