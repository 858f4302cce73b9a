package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/models"
	"github.com/bekosirs/bekoctl/internal/server/middleware"
	"github.com/bekosirs/bekoctl/internal/storage"
)

// Account endpoint messages
const (
	MsgUsernameTaken        = "A user with that username already exists."
	MsgEmailTaken           = "user with this email already exists."
	MsgPasswordTooShort     = "This password is too short. It must contain at least %d characters."
	MsgPasswordFieldsNeeded = "Both old_password and new_password are required"
	MsgOldPasswordWrong     = "Current password is incorrect"
	MsgNewPasswordTooShort  = "New password must be at least %d characters"
	MsgPasswordChanged      = "Password changed successfully"
	MsgEmailFieldsNeeded    = "Both new_email and password are required"
	MsgEmailInvalid         = "Enter a valid email address"
	MsgEmailInUse           = "This email is already in use"
	MsgPasswordWrong        = "Password is incorrect"
	MsgEmailChanged         = "Email changed successfully"
)

// AccountHandler handles registration and account changes
type AccountHandler struct {
	accounts *auth.Accounts
	metrics  *MetricsHandler
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *auth.Accounts, metrics *MetricsHandler, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register handles POST /api/register/
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		h.metrics.IncrementValidationErrors()
		return
	}

	fields := requireFields(map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	})
	if fields == nil {
		fields = make(map[string][]string)
	}
	if _, missing := fields["email"]; !missing && !models.ValidEmail(req.Email) {
		fields["email"] = []string{MsgInvalidEmail}
	}
	if _, missing := fields["password"]; !missing && !models.ValidPassword(req.Password) {
		fields["password"] = []string{fmt.Sprintf(MsgPasswordTooShort, models.MinPasswordLength)}
	}
	if len(fields) > 0 {
		h.metrics.IncrementValidationErrors()
		writeFieldErrors(w, fields)
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		var conflict *storage.ConflictError
		if errors.As(err, &conflict) {
			msg := MsgUsernameTaken
			if conflict.Field == "email" {
				msg = MsgEmailTaken
			}
			h.metrics.IncrementValidationErrors()
			writeFieldErrors(w, map[string][]string{conflict.Field: {msg}})
			return
		}
		h.logger.Error("Failed to register user", "username", req.Username, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementRegistrations()
	h.logger.Info("User registered", "username", user.Username, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, models.RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// ChangePassword handles POST /api/change-password/
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		h.metrics.IncrementValidationErrors()
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		h.metrics.IncrementValidationErrors()
		writeMessage(w, http.StatusBadRequest, MsgPasswordFieldsNeeded)
		return
	}
	if !models.ValidPassword(req.NewPassword) {
		h.metrics.IncrementValidationErrors()
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf(MsgNewPasswordTooShort, models.MinPasswordLength))
		return
	}

	err := h.accounts.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, MsgOldPasswordWrong)
		return
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusUnauthorized, middleware.MsgTokenInvalid)
		return
	default:
		h.logger.Error("Failed to change password", "user_id", userID, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementPasswordChanges()
	h.logger.Info("Password changed", "user_id", userID)
	writeMessage(w, http.StatusOK, MsgPasswordChanged)
}

// ChangeEmail handles POST /api/change-email/
func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.ChangeEmailRequest
	if !decodeBody(w, r, &req) {
		h.metrics.IncrementValidationErrors()
		return
	}
	if req.NewEmail == "" || req.Password == "" {
		h.metrics.IncrementValidationErrors()
		writeMessage(w, http.StatusBadRequest, MsgEmailFieldsNeeded)
		return
	}
	if !models.ValidEmail(req.NewEmail) {
		h.metrics.IncrementValidationErrors()
		writeMessage(w, http.StatusBadRequest, MsgEmailInvalid)
		return
	}

	err := h.accounts.ChangeEmail(r.Context(), userID, req.NewEmail, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, MsgPasswordWrong)
		return
	case errors.Is(err, storage.ErrAlreadyExists):
		writeMessage(w, http.StatusBadRequest, MsgEmailInUse)
		return
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusUnauthorized, middleware.MsgTokenInvalid)
		return
	default:
		h.logger.Error("Failed to change email", "user_id", userID, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementEmailChanges()
	h.logger.Info("Email changed", "user_id", userID)
	writeMessage(w, http.StatusOK, MsgEmailChanged)
}
