package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bekosirs/bekoctl/internal/models"
)

// FileStorage keeps the dataset in memory and writes it to a JSON file after
// every change
type FileStorage struct {
	*BaseStorage
	filePath string
}

// NewFileStorage creates a file-backed store, loading filePath if it exists
func NewFileStorage(filePath string, logger *slog.Logger) (*FileStorage, error) {
	fs := &FileStorage{
		BaseStorage: NewBaseStorage(logger),
		filePath:    filePath,
	}

	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("failed to load storage: %w", err)
	}

	return fs, nil
}

// load reads storage from file or creates empty storage
func (fs *FileStorage) load() error {
	fileData, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		fs.logger.Info("Storage file not found, creating empty storage",
			"file_path", fs.filePath)

		dir := filepath.Dir(fs.filePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}

		fs.mu.RLock()
		defer fs.mu.RUnlock()
		if err := fs.saveToFile(); err != nil {
			return fmt.Errorf("failed to create storage file: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}

	if err := fs.UnmarshalData(fileData); err != nil {
		return fmt.Errorf("failed to parse storage file (invalid JSON syntax): %w", err)
	}

	fs.mu.RLock()
	fs.logger.Info("Storage file loaded",
		"file_path", fs.filePath,
		"user_count", len(fs.data.Users),
		"product_count", len(fs.data.Products))
	fs.mu.RUnlock()

	return nil
}

// saveToFile writes data to file atomically (temp file + rename).
// Caller MUST hold at least a read lock.
func (fs *FileStorage) saveToFile() error {
	jsonData, err := fs.marshalDataLocked()
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	// Create temp file in same directory
	dir := filepath.Dir(fs.filePath)
	tempFile, err := os.CreateTemp(dir, ".bekosirs-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure temp file cleanup on error
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	// Holds password hashes
	if err := tempFile.Chmod(0600); err != nil {
		return fmt.Errorf("failed to set storage file permissions: %w", err)
	}
	if _, err := tempFile.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tempFile = nil // Prevent deferred cleanup

	if err := os.Rename(tempPath, fs.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Path returns the storage file location
func (fs *FileStorage) Path() string {
	return fs.filePath
}

// SeedProducts installs the catalog when the file holds none
func (fs *FileStorage) SeedProducts(products []models.Product) (bool, error) {
	return fs.BaseStorage.SeedProducts(products, fs.saveToFile)
}

// CreateUser implements Store
func (fs *FileStorage) CreateUser(ctx context.Context, u *models.User) error {
	return fs.BaseStorage.CreateUser(ctx, u, fs.saveToFile)
}

// UpdateUser implements Store
func (fs *FileStorage) UpdateUser(ctx context.Context, u *models.User) error {
	return fs.BaseStorage.UpdateUser(ctx, u, fs.saveToFile)
}

// AssignProduct implements Store
func (fs *FileStorage) AssignProduct(ctx context.Context, userID, productID int, assignedDate string) error {
	return fs.BaseStorage.AssignProduct(ctx, userID, productID, assignedDate, fs.saveToFile)
}

// Close implements Store. Every change is already on disk.
func (fs *FileStorage) Close() error {
	fs.logger.Info("Closing file storage", "file_path", fs.filePath)
	return nil
}
