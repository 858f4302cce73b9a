package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekosirs/bekoctl/internal/models"
)

func newTestSQLiteStorage(t *testing.T, path string) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_SeedProducts(t *testing.T) {
	s := newTestSQLiteStorage(t, ":memory:")

	added, err := s.SeedProducts(DefaultCatalog())
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.SeedProducts(DefaultCatalog())
	require.NoError(t, err)
	assert.False(t, added)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), products)
}

func TestSQLiteStorage_Users(t *testing.T) {
	s := newTestSQLiteStorage(t, ":memory:")
	ctx := context.Background()

	ayse := &models.User{Username: "ayse", Email: "Ayse@Example.com", PasswordHash: "h1", FirstName: "Ayşe"}
	require.NoError(t, s.CreateUser(ctx, ayse))
	assert.Equal(t, 1, ayse.ID)

	got, err := s.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, ayse, got)

	err = s.CreateUser(ctx, &models.User{Username: "ayse", Email: "x@example.com", PasswordHash: "h"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	err = s.CreateUser(ctx, &models.User{Username: "other", Email: "ayse@example.com", PasswordHash: "h"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got.Email = "ayse.new@example.com"
	got.PasswordHash = "h2"
	require.NoError(t, s.UpdateUser(ctx, got))

	reloaded, err := s.GetUser(ctx, ayse.ID)
	require.NoError(t, err)
	assert.Equal(t, "ayse.new@example.com", reloaded.Email)
	assert.Equal(t, "h2", reloaded.PasswordHash)

	_, err = s.GetUser(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: 99, Username: "ghost", PasswordHash: "h"}), ErrNotFound)
}

func TestSQLiteStorage_Assignments(t *testing.T) {
	s := newTestSQLiteStorage(t, ":memory:")
	ctx := context.Background()
	_, err := s.SeedProducts(DefaultCatalog())
	require.NoError(t, err)

	u := &models.User{Username: "mehmet", Email: "mehmet@example.com", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, u))

	owned, err := s.ListAssignedProducts(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	require.NoError(t, s.AssignProduct(ctx, u.ID, 7, "2026-03-01"))
	require.NoError(t, s.AssignProduct(ctx, u.ID, 2, "2026-03-02"))
	assert.ErrorIs(t, s.AssignProduct(ctx, u.ID, 2, "2026-03-03"), ErrAlreadyExists)
	assert.ErrorIs(t, s.AssignProduct(ctx, u.ID, 42, "2026-03-03"), ErrNotFound)
	assert.ErrorIs(t, s.AssignProduct(ctx, 42, 1, "2026-03-03"), ErrNotFound)

	owned, err = s.ListAssignedProducts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, 7, owned[0].ID)
	assert.Nil(t, owned[0].Category)
	assert.Equal(t, "2026-03-01", owned[0].AssignedDate)
	assert.Equal(t, 2, owned[1].ID)
	assert.Equal(t, "Laundry", owned[1].Category.Name)
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "stub.db")
	ctx := context.Background()

	first, err := NewSQLiteStorage(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = first.SeedProducts(DefaultCatalog())
	require.NoError(t, err)
	require.NoError(t, first.CreateUser(ctx, &models.User{Username: "ayse", Email: "ayse@example.com", PasswordHash: "h"}))
	require.NoError(t, first.AssignProduct(ctx, 1, 3, "2026-04-01"))
	require.NoError(t, first.Close())

	second := newTestSQLiteStorage(t, path)
	assert.Equal(t, path, second.Path())

	u, err := second.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	owned, err := second.ListAssignedProducts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, 3, owned[0].ID)
}
