package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bekosirs/bekoctl/internal/apierrors"
)

// ErrNotFound is returned by backends when a key has never been set or was deleted
var ErrNotFound = errors.New("credentials not found")

// Storage keys shared by every backend
const (
	TokenKey        = "authToken"
	RefreshTokenKey = "refreshToken"
)

// Backend is a platform key/value medium. Each key must be read and written
// atomically; nothing is guaranteed across keys.
type Backend interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// TokenInfo reports which credentials are present
type TokenInfo struct {
	HasAccessToken  bool `json:"has_access_token"`
	HasRefreshToken bool `json:"has_refresh_token"`
}

// Store persists bearer credentials on top of a Backend. Read faults degrade
// to "absent"; write faults are returned as apierrors.KindStorageFault.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore creates a credential store
func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With("backend", backend.Name()),
	}
}

// Backend returns the underlying storage medium
func (s *Store) Backend() Backend {
	return s.backend
}

// SaveToken stores the access token. Empty tokens are ignored.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	return s.save(ctx, TokenKey, token)
}

// GetToken returns the access token and whether one is stored
func (s *Store) GetToken(ctx context.Context) (string, bool) {
	return s.get(ctx, TokenKey)
}

// DeleteToken removes the access token. Deleting an absent token succeeds.
func (s *Store) DeleteToken(ctx context.Context) error {
	return s.delete(ctx, TokenKey)
}

// SaveRefreshToken stores the refresh token. Empty tokens are ignored.
func (s *Store) SaveRefreshToken(ctx context.Context, token string) error {
	return s.save(ctx, RefreshTokenKey, token)
}

// GetRefreshToken returns the refresh token and whether one is stored
func (s *Store) GetRefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, RefreshTokenKey)
}

// DeleteRefreshToken removes the refresh token
func (s *Store) DeleteRefreshToken(ctx context.Context) error {
	return s.delete(ctx, RefreshTokenKey)
}

// SaveTokens stores both tokens. Both writes are always attempted; a failure
// of either is returned and may leave only one of them persisted.
func (s *Store) SaveTokens(ctx context.Context, access, refresh string) error {
	return s.pair(
		func() error { return s.SaveToken(ctx, access) },
		func() error { return s.SaveRefreshToken(ctx, refresh) },
	)
}

// ClearAllTokens deletes both tokens with the same best-effort semantics as SaveTokens
func (s *Store) ClearAllTokens(ctx context.Context) error {
	return s.pair(
		func() error { return s.DeleteToken(ctx) },
		func() error { return s.DeleteRefreshToken(ctx) },
	)
}

// IsAuthenticated reports whether an access token is stored
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.GetToken(ctx)
	return ok
}

// TokenInfo reports which tokens are stored
func (s *Store) TokenInfo(ctx context.Context) TokenInfo {
	_, hasAccess := s.GetToken(ctx)
	_, hasRefresh := s.GetRefreshToken(ctx)
	return TokenInfo{HasAccessToken: hasAccess, HasRefreshToken: hasRefresh}
}

func (s *Store) save(ctx context.Context, key, value string) error {
	if value == "" {
		s.logger.Warn("Attempted to save empty credential", "key", key)
		return nil
	}
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.logger.Error("Failed to save credential", "key", key, "error", err)
		return apierrors.Storage("save", err)
	}
	s.logger.Debug("Credential saved", "key", key)
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No credential found", "key", key)
		} else {
			s.logger.Error("Failed to read credential", "key", key, "error", err)
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// delete removes key. When the backend cannot delete, the key is overwritten
// with an empty value, which every read treats as absent.
func (s *Store) delete(ctx context.Context, key string) error {
	err := s.backend.Delete(ctx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		s.logger.Debug("Credential deleted", "key", key)
		return nil
	}

	if setErr := s.backend.Set(ctx, key, ""); setErr != nil {
		s.logger.Error("Failed to delete credential", "key", key, "error", err, "overwrite_error", setErr)
		return apierrors.Storage("delete", errors.Join(err, setErr))
	}
	s.logger.Warn("Delete failed, credential overwritten with empty value", "key", key, "error", err)
	return nil
}

// pair runs both operations concurrently and joins their errors
func (s *Store) pair(first, second func() error) error {
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = first()
	}()
	go func() {
		defer wg.Done()
		errs[1] = second()
	}()
	wg.Wait()
	return errors.Join(errs...)
}
