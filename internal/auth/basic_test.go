package auth

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekosirs/bekoctl/internal/models"
	"github.com/bekosirs/bekoctl/internal/storage"
)

func newTestAccounts(t *testing.T) (*Accounts, *storage.MemoryStorage) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStorage(logger)
	_, err := store.SeedProducts(storage.DefaultCatalog())
	require.NoError(t, err)
	return NewAccounts(store, logger), store
}

func TestAccounts_RegisterAndAuthenticate(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, models.RegisterRequest{
		Username: "ayse",
		Email:    " ayse@example.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ayse@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	got, err := accounts.Authenticate(ctx, "ayse", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = accounts.Authenticate(ctx, "ayse", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = accounts.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = accounts.Register(ctx, models.RegisterRequest{Username: "ayse", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestAccounts_ChangePasswordAndEmail(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, models.RegisterRequest{Username: "ayse", Email: "ayse@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, accounts.ChangePassword(ctx, user.ID, "wrong", "secret2"), ErrInvalidCredentials)
	require.NoError(t, accounts.ChangePassword(ctx, user.ID, "secret1", "secret2"))

	_, err = accounts.Authenticate(ctx, "ayse", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = accounts.Authenticate(ctx, "ayse", "secret2")
	require.NoError(t, err)

	assert.ErrorIs(t, accounts.ChangeEmail(ctx, user.ID, "new@example.com", "secret1"), ErrInvalidCredentials)
	require.NoError(t, accounts.ChangeEmail(ctx, user.ID, "new@example.com", "secret2"))

	got, err := accounts.Authenticate(ctx, "ayse", "secret2")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
}

func TestLoadUsersFile(t *testing.T) {
	_, store := newTestAccounts(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.yaml")
	content := "users:\n" +
		"  - username: ayse\n" +
		"    password: " + hash + "\n" +
		"    email: ayse@example.com\n" +
		"    products: [1, 3]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	created, err := LoadUsersFile(ctx, path, store, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// A second load skips existing users
	created, err = LoadUsersFile(ctx, path, store, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	user, err := store.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	owned, err := store.ListAssignedProducts(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	_, err = LoadUsersFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"), store, logger)
	assert.Error(t, err)
}

func TestSeedUser(t *testing.T) {
	accounts, store := newTestAccounts(t)
	ctx := context.Background()

	require.NoError(t, SeedUser(ctx, store, "demo", "demo123"))
	require.NoError(t, SeedUser(ctx, store, "demo", "demo123"))

	_, err := accounts.Authenticate(ctx, "demo", "demo123")
	assert.NoError(t, err)
}
