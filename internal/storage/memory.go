package storage

import (
	"context"
	"log/slog"

	"github.com/bekosirs/bekoctl/internal/models"
)

// MemoryStorage keeps the dataset only for the lifetime of the process
type MemoryStorage struct {
	*BaseStorage
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage(logger *slog.Logger) *MemoryStorage {
	return &MemoryStorage{BaseStorage: NewBaseStorage(logger)}
}

// SeedProducts installs the catalog when none is present
func (ms *MemoryStorage) SeedProducts(products []models.Product) (bool, error) {
	return ms.BaseStorage.SeedProducts(products, nil)
}

// CreateUser implements Store
func (ms *MemoryStorage) CreateUser(ctx context.Context, u *models.User) error {
	return ms.BaseStorage.CreateUser(ctx, u, nil)
}

// UpdateUser implements Store
func (ms *MemoryStorage) UpdateUser(ctx context.Context, u *models.User) error {
	return ms.BaseStorage.UpdateUser(ctx, u, nil)
}

// AssignProduct implements Store
func (ms *MemoryStorage) AssignProduct(ctx context.Context, userID, productID int, assignedDate string) error {
	return ms.BaseStorage.AssignProduct(ctx, userID, productID, assignedDate, nil)
}

// Close implements Store
func (ms *MemoryStorage) Close() error {
	return nil
}
