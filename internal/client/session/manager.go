package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/bekosirs/bekoctl/internal/apierrors"
	"github.com/bekosirs/bekoctl/internal/client"
	"github.com/bekosirs/bekoctl/internal/client/auth"
	"github.com/bekosirs/bekoctl/internal/client/validation"
	"github.com/bekosirs/bekoctl/internal/models"
)

// Service endpoints
const (
	TokenPath          = "/api/token/"
	RegisterPath       = "/api/register/"
	ChangePasswordPath = "/api/change-password/"
	ChangeEmailPath    = "/api/change-email/"
)

// User-facing messages
const (
	MsgInvalidCredentials   = "invalid username or password"
	MsgLoginFailed          = "login failed"
	MsgRegisterFailed       = "registration failed"
	MsgPasswordChangeFailed = "password could not be changed"
	MsgEmailChangeFailed    = "email could not be changed"
	MsgMissingAccessToken   = "login response did not include an access token"
)

// ErrSuperseded is returned to a login whose result arrived after a later
// session operation had already been applied. Its result was discarded.
var ErrSuperseded = errors.New("login superseded by a newer session operation")

// loginRequestKey marks the context of requests issued by Login
type loginRequestKey struct{}

func isLoginRequest(req *http.Request) bool {
	marked, _ := req.Context().Value(loginRequestKey{}).(bool)
	return marked
}

// Options tunes session policy
type Options struct {
	// AutoLogout clears the session when an authenticated request other than
	// login is rejected with 401.
	AutoLogout bool
}

// Manager drives the login/logout lifecycle and keeps the in-memory State
// consistent with the credential store.
//
// Every state-changing operation draws a generation number when it is issued.
// Its result is applied only if no operation issued later has been applied
// already, so a slow response can never overwrite a newer outcome.
type Manager struct {
	client *client.Client
	store  *auth.Store
	logger *slog.Logger
	opts   Options

	issued atomic.Uint64

	mu      sync.RWMutex
	state   State
	applied uint64

	restoreOnce sync.Once
}

// NewManager creates a session manager and installs its request hook and
// response observer on c.
func NewManager(c *client.Client, store *auth.Store, logger *slog.Logger, opts Options) *Manager {
	m := &Manager{
		client: c,
		store:  store,
		logger: logger,
		opts:   opts,
		state:  State{Phase: PhaseUnknown},
	}
	c.Use(m.AuthorizeRequest)
	c.Observe(m.ObserveResponse)
	return m
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Restore resolves the Unknown phase from the credential store. Only the first
// call does any work.
func (m *Manager) Restore(ctx context.Context) State {
	m.restoreOnce.Do(func() {
		gen := m.issued.Add(1)

		m.mu.Lock()
		m.state.Loading = true
		m.mu.Unlock()

		token, ok := m.store.GetToken(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.state.Loading = false
		if !m.claim(gen) {
			m.logger.Debug("Stored session superseded before restore completed")
			return
		}
		if ok {
			m.state = authenticated(token)
		} else {
			m.state = unauthenticated()
		}
		m.logger.Debug("Session restored", "phase", m.state.Phase.String())
	})
	return m.State()
}

// Login authenticates against the service and persists the issued tokens
func (m *Manager) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	if err := validation.Required(
		validation.Field{Name: "username", Value: username},
		validation.Field{Name: "password", Value: password},
	); err != nil {
		return nil, err
	}

	gen := m.issued.Add(1)
	m.logger.Debug("Attempting login", "username", username, "generation", gen)

	var pair models.TokenPair
	reqCtx := context.WithValue(ctx, loginRequestKey{}, true)
	err := m.client.PostJSON(reqCtx, TokenPath, models.LoginRequest{Username: username, Password: password}, &pair)
	if err == nil && pair.Access == "" {
		err = &apierrors.Error{Kind: apierrors.KindServer, StatusCode: http.StatusOK, UserMessage: MsgMissingAccessToken}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.claim(gen) {
		m.logger.Debug("Discarding stale login result", "generation", gen)
		return nil, ErrSuperseded
	}

	if err != nil {
		err = classifyLogin(err)
		m.logger.Warn("Login failed", "username", username, "error", err)
		return nil, err
	}

	if err := m.persist(ctx, &pair); err != nil {
		m.state = unauthenticated()
		return nil, err
	}

	m.state = authenticated(pair.Access)
	m.logger.Info("Login successful", "username", username, "has_refresh_token", pair.Refresh != "")
	return &pair, nil
}

// persist stores the token pair. A failure to store the access token fails
// the login; a refresh-token failure alone is only logged. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context, pair *models.TokenPair) error {
	var err error
	if pair.Refresh != "" {
		err = m.store.SaveTokens(ctx, pair.Access, pair.Refresh)
	} else {
		err = m.store.SaveToken(ctx, pair.Access)
		if delErr := m.store.DeleteRefreshToken(ctx); delErr != nil {
			m.logger.Warn("Failed to remove previous refresh token", "error", delErr)
		}
	}
	if err == nil {
		return nil
	}

	if stored, ok := m.store.GetToken(ctx); ok && stored == pair.Access {
		m.logger.Warn("Refresh token was not persisted", "error", err)
		return nil
	}

	m.logger.Error("Failed to persist access token", "error", err)
	if clearErr := m.store.ClearAllTokens(ctx); clearErr != nil {
		m.logger.Warn("Failed to clear partial credentials", "error", clearErr)
	}
	return err
}

// Logout clears stored credentials and resets the session. Storage faults
// are logged; the session is unauthenticated afterwards regardless.
func (m *Manager) Logout(ctx context.Context) {
	gen := m.issued.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.claim(gen)
	m.clearLocked(ctx)
	m.logger.Info("Logged out")
}

func (m *Manager) clearLocked(ctx context.Context) {
	if err := m.store.ClearAllTokens(ctx); err != nil {
		m.logger.Error("Failed to clear credentials", "error", err)
	}
	m.state = unauthenticated()
}

// CheckAuth reports whether an access token is stored
func (m *Manager) CheckAuth(ctx context.Context) bool {
	return m.store.IsAuthenticated(ctx)
}

// AuthorizeRequest attaches the stored bearer token to req. It reads the
// store on every call so tokens written by another process are honoured.
// Login requests are sent without a bearer.
func (m *Manager) AuthorizeRequest(req *http.Request) error {
	if isLoginRequest(req) {
		return nil
	}
	if token, ok := m.store.GetToken(req.Context()); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// ObserveResponse invalidates the session when the server rejects the token
// currently in use. Login responses are ignored; Login reports those itself.
func (m *Manager) ObserveResponse(req *http.Request, statusCode int) {
	if statusCode != http.StatusUnauthorized || !m.opts.AutoLogout || isLoginRequest(req) {
		return
	}
	sent := req.Header.Get("Authorization")
	if sent == "" {
		return
	}

	gen := m.issued.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A newer login may already have replaced the rejected token
	if current, ok := m.store.GetToken(req.Context()); !ok || "Bearer "+current != sent {
		return
	}
	m.claim(gen)
	m.logger.Warn("Session rejected by server, logging out", "endpoint", req.URL.Path)
	m.clearLocked(req.Context())
}

// claim marks gen as applied unless a later generation already was.
// Callers hold m.mu.
func (m *Manager) claim(gen uint64) bool {
	if gen < m.applied {
		return false
	}
	m.applied = gen
	return true
}

// Register creates an account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := validation.Required(
		validation.Field{Name: "username", Value: req.Username},
		validation.Field{Name: "email", Value: req.Email},
		validation.Field{Name: "password", Value: req.Password},
	); err != nil {
		return err
	}

	if err := m.client.PostJSON(ctx, RegisterPath, req, nil); err != nil {
		err = refine(err,
			apierrors.FromField("username", "username"),
			apierrors.FromField("email", "email"),
			apierrors.FromField("password", "password"),
			apierrors.FromDetail,
			apierrors.Literal(MsgRegisterFailed),
		)
		m.logger.Warn("Registration failed", "username", req.Username, "error", err)
		return err
	}

	m.logger.Info("Registration successful", "username", req.Username)
	return nil
}

// ChangePassword updates the account password
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	if err := validation.Required(
		validation.Field{Name: "current password", Value: oldPassword},
		validation.Field{Name: "new password", Value: newPassword},
		validation.Field{Name: "password confirmation", Value: confirm},
	); err != nil {
		return err
	}
	if err := validation.ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}

	body := models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := m.client.PostJSON(ctx, ChangePasswordPath, body, nil); err != nil {
		return refine(err, apierrors.FromMessage, apierrors.Literal(MsgPasswordChangeFailed))
	}

	m.logger.Info("Password changed")
	return nil
}

// ChangeEmail updates the account email; the current password confirms it
func (m *Manager) ChangeEmail(ctx context.Context, newEmail, password string) error {
	if err := validation.Required(
		validation.Field{Name: "new email", Value: newEmail},
		validation.Field{Name: "password", Value: password},
	); err != nil {
		return err
	}
	if err := validation.ValidateEmail(newEmail); err != nil {
		return err
	}

	body := models.ChangeEmailRequest{NewEmail: newEmail, Password: password}
	if err := m.client.PostJSON(ctx, ChangeEmailPath, body, nil); err != nil {
		return refine(err, apierrors.FromMessage, apierrors.Literal(MsgEmailChangeFailed))
	}

	m.logger.Info("Email changed")
	return nil
}

func classifyLogin(err error) error {
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Kind == apierrors.KindAuthRejected {
		apiErr.UserMessage = MsgInvalidCredentials
		return apiErr
	}
	return apiErr.Refine(apierrors.FromDetail, apierrors.Literal(MsgLoginFailed))
}

func refine(err error, chain ...apierrors.Source) error {
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		return apiErr.Refine(chain...)
	}
	return err
}
