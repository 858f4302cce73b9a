package storage

import (
	"context"
	"errors"

	"github.com/bekosirs/bekoctl/internal/models"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when attempting to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrStorageUnavailable is returned when storage operations fail
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ConflictError reports which unique user field collided. It matches
// ErrAlreadyExists.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

// Is reports whether target is ErrAlreadyExists
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// Store defines the interface for the stub service's data
type Store interface {
	// User operations. Usernames are unique; emails are unique ignoring case.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Catalog operations
	ListProducts(ctx context.Context) ([]models.Product, error)
	AssignProduct(ctx context.Context, userID, productID int, assignedDate string) error
	ListAssignedProducts(ctx context.Context, userID int) ([]models.Product, error)

	// Close closes the storage
	Close() error
}
