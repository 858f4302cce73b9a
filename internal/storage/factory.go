package storage

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bekosirs/bekoctl/internal/models"
)

// SQLiteScheme selects the SQLite backend regardless of file extension
const SQLiteScheme = "sqlite://"

// Seeder is implemented by backends that can install an initial catalog
type Seeder interface {
	SeedProducts(products []models.Product) (bool, error)
}

// SeedableStore is a Store that accepts a catalog seed
type SeedableStore interface {
	Store
	Seeder
}

// NewStorage creates a storage backend from a location:
//   - ""                                  -> MemoryStorage
//   - sqlite://path, *.db, *.sqlite(3)    -> SQLiteStorage
//   - anything else                       -> FileStorage (JSON)
func NewStorage(location string, logger *slog.Logger) (SeedableStore, error) {
	if location == "" {
		logger.Info("Using in-memory storage, data is lost on exit")
		return NewMemoryStorage(logger), nil
	}

	if path, ok := strings.CutPrefix(location, SQLiteScheme); ok {
		return NewSQLiteStorage(path, logger)
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStorage(location, logger)
	}

	return NewFileStorage(location, logger)
}
