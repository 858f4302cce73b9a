package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/bekosirs/bekoctl/internal/models"
)

// BaseStorage provides the shared in-memory operations for all storage backends.
// It handles locking, uniqueness checks and rollback. Concrete backends embed it
// and supply their own persistence.
type BaseStorage struct {
	mu     sync.RWMutex
	data   *models.Dataset
	logger *slog.Logger
}

// PersistFunc is a callback function that backends implement for persistence
type PersistFunc func() error

// NewBaseStorage creates a new BaseStorage with empty data
func NewBaseStorage(logger *slog.Logger) *BaseStorage {
	return &BaseStorage{
		data:   models.NewDataset(),
		logger: logger,
	}
}

// MarshalData serializes the dataset to JSON.
// NOTE: Caller must NOT hold the lock.
func (b *BaseStorage) MarshalData() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.marshalDataLocked()
}

// marshalDataLocked serializes data without acquiring lock.
// Caller MUST hold at least a read lock.
func (b *BaseStorage) marshalDataLocked() ([]byte, error) {
	return json.MarshalIndent(b.data, "", "  ")
}

// UnmarshalData replaces the dataset with jsonData
func (b *BaseStorage) UnmarshalData(jsonData []byte) error {
	data := models.NewDataset()
	if err := json.Unmarshal(jsonData, data); err != nil {
		return err
	}
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
	return nil
}

// SeedProducts installs the catalog if none is present. It reports whether
// anything was added.
func (b *BaseStorage) SeedProducts(products []models.Product, persist PersistFunc) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data.Products) > 0 {
		return false, nil
	}
	b.data.Products = append([]models.Product(nil), products...)

	if persist != nil {
		if err := persist(); err != nil {
			b.data.Products = []models.Product{}
			b.logger.Error("Storage write failed", "operation", "seed_products", "error", err)
			return false, ErrStorageUnavailable
		}
	}
	return true, nil
}

// CreateUser stores u and assigns its ID.
// If persist fails, the in-memory change is rolled back.
func (b *BaseStorage) CreateUser(ctx context.Context, u *models.User, persist PersistFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkUniqueLocked(u, 0); err != nil {
		return err
	}

	stored := *u
	stored.ID = b.nextUserIDLocked()
	b.data.Users = append(b.data.Users, &stored)

	if persist != nil {
		if err := persist(); err != nil {
			b.data.Users = b.data.Users[:len(b.data.Users)-1]
			b.logger.Error("Storage write failed",
				"operation", "create_user",
				"username", u.Username,
				"error", err)
			return ErrStorageUnavailable
		}
	}

	u.ID = stored.ID
	b.logger.Info("User created", "username", u.Username, "user_id", u.ID)
	return nil
}

// GetUser retrieves a user by ID
func (b *BaseStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, u := range b.data.Users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByUsername retrieves a user by username
func (b *BaseStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, u := range b.data.Users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUser replaces the stored user with the same ID.
// If persist fails, the previous record is restored.
func (b *BaseStorage) UpdateUser(ctx context.Context, u *models.User, persist PersistFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, existing := range b.data.Users {
		if existing.ID == u.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if err := b.checkUniqueLocked(u, u.ID); err != nil {
		return err
	}

	previous := b.data.Users[idx]
	updated := *u
	b.data.Users[idx] = &updated

	if persist != nil {
		if err := persist(); err != nil {
			b.data.Users[idx] = previous
			b.logger.Error("Storage write failed",
				"operation", "update_user",
				"user_id", u.ID,
				"error", err)
			return ErrStorageUnavailable
		}
	}

	b.logger.Info("User updated", "user_id", u.ID)
	return nil
}

// ListProducts returns the catalog ordered by ID
func (b *BaseStorage) ListProducts(ctx context.Context) ([]models.Product, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	products := append([]models.Product{}, b.data.Products...)
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// AssignProduct records that userID owns productID. Assigning the same
// product twice is a conflict.
func (b *BaseStorage) AssignProduct(ctx context.Context, userID, productID int, assignedDate string, persist PersistFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findUserLocked(userID) == nil || b.findProductLocked(productID) == nil {
		return ErrNotFound
	}
	for _, a := range b.data.Assignments {
		if a.UserID == userID && a.ProductID == productID {
			return ErrAlreadyExists
		}
	}

	b.data.Assignments = append(b.data.Assignments, models.Assignment{
		UserID:       userID,
		ProductID:    productID,
		AssignedDate: assignedDate,
	})

	if persist != nil {
		if err := persist(); err != nil {
			b.data.Assignments = b.data.Assignments[:len(b.data.Assignments)-1]
			b.logger.Error("Storage write failed",
				"operation", "assign_product",
				"user_id", userID,
				"product_id", productID,
				"error", err)
			return ErrStorageUnavailable
		}
	}

	b.logger.Info("Product assigned", "user_id", userID, "product_id", productID)
	return nil
}

// ListAssignedProducts returns userID's products with their assignment date
func (b *BaseStorage) ListAssignedProducts(ctx context.Context, userID int) ([]models.Product, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	products := []models.Product{}
	for _, a := range b.data.Assignments {
		if a.UserID != userID {
			continue
		}
		if p := b.findProductLocked(a.ProductID); p != nil {
			owned := *p
			owned.AssignedDate = a.AssignedDate
			products = append(products, owned)
		}
	}
	return products, nil
}

// checkUniqueLocked rejects u when its username or email belongs to a user
// other than selfID. Caller MUST hold the lock.
func (b *BaseStorage) checkUniqueLocked(u *models.User, selfID int) error {
	email := models.NormalizeEmail(u.Email)
	for _, existing := range b.data.Users {
		if existing.ID == selfID {
			continue
		}
		if existing.Username == u.Username {
			return &ConflictError{Field: "username"}
		}
		if email != "" && models.NormalizeEmail(existing.Email) == email {
			return &ConflictError{Field: "email"}
		}
	}
	return nil
}

func (b *BaseStorage) nextUserIDLocked() int {
	next := 1
	for _, u := range b.data.Users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}

func (b *BaseStorage) findUserLocked(id int) *models.User {
	for _, u := range b.data.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (b *BaseStorage) findProductLocked(id int) *models.Product {
	for i := range b.data.Products {
		if b.data.Products[i].ID == id {
			return &b.data.Products[i]
		}
	}
	return nil
}
