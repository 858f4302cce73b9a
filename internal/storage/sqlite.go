package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/bekosirs/bekoctl/internal/models"
	"github.com/bekosirs/bekoctl/internal/storage/migrations"
)

// SQLiteStorage keeps the dataset in a SQLite database
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and applies
// pending migrations. ":memory:" gives a private in-memory database.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{db: db, path: path, logger: logger}
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("SQLite storage ready", "database", path)
	return s, nil
}

// ApplyMigrations applies any pending embedded migrations
func (s *SQLiteStorage) ApplyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Path returns the database location
func (s *SQLiteStorage) Path() string {
	return s.path
}

// SeedProducts installs the catalog when none is present
func (s *SQLiteStorage) SeedProducts(products []models.Product) (bool, error) {
	ctx := context.Background()
	added := false

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, p := range products {
			var categoryID sql.NullInt64
			if p.Category != nil {
				categoryID = sql.NullInt64{Int64: int64(p.Category.ID), Valid: true}
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)`,
					p.Category.ID, p.Category.Name); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO products (id, name, brand, price, image, category_id, status, description)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Brand, p.Price, p.Image, categoryID, p.Status, p.Description); err != nil {
				return err
			}
		}
		added = true
		return nil
	})
	if err != nil {
		return false, s.fault("seed_products", err)
	}
	return added, nil
}

// CreateUser implements Store
func (s *SQLiteStorage) CreateUser(ctx context.Context, u *models.User) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkUniqueTx(ctx, tx, u, 0); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, email_normalized, password_hash, first_name, last_name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.Username, u.Email, models.NormalizeEmail(u.Email), u.PasswordHash, u.FirstName, u.LastName)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = int(id)
		return nil
	})
	if err != nil {
		return s.fault("create_user", err)
	}

	s.logger.Info("User created", "username", u.Username, "user_id", u.ID)
	return nil
}

// GetUser implements Store
func (s *SQLiteStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByUsername implements Store
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

func (s *SQLiteStorage) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, first_name, last_name FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName)
	if err != nil {
		return nil, s.fault("get_user", err)
	}
	return u, nil
}

// UpdateUser implements Store
func (s *SQLiteStorage) UpdateUser(ctx context.Context, u *models.User) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkUniqueTx(ctx, tx, u, u.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, email_normalized = ?, password_hash = ?, first_name = ?, last_name = ?
			 WHERE id = ?`,
			u.Username, u.Email, models.NormalizeEmail(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return s.fault("update_user", err)
	}

	s.logger.Info("User updated", "user_id", u.ID)
	return nil
}

const productColumns = `p.id, p.name, p.brand, p.price, p.image, p.status, p.description, c.id, c.name`

// ListProducts implements Store
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products p LEFT JOIN categories c ON c.id = p.category_id
		 ORDER BY p.id`)
	if err != nil {
		return nil, s.fault("list_products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows, false)
		if err != nil {
			return nil, s.fault("list_products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fault("list_products", err)
	}
	return products, nil
}

// AssignProduct implements Store
func (s *SQLiteStorage) AssignProduct(ctx context.Context, userID, productID int, assignedDate string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var found int
		err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM users WHERE id = ?) + (SELECT COUNT(*) FROM products WHERE id = ?)`,
			userID, productID).Scan(&found)
		if err != nil {
			return err
		}
		if found < 2 {
			return ErrNotFound
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO assignments (user_id, product_id, assigned_date) VALUES (?, ?, ?)`,
			userID, productID, assignedDate)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrAlreadyExists
		}
		return nil
	})
	if err != nil {
		return s.fault("assign_product", err)
	}

	s.logger.Info("Product assigned", "user_id", userID, "product_id", productID)
	return nil
}

// ListAssignedProducts implements Store. Products come back in assignment order.
func (s *SQLiteStorage) ListAssignedProducts(ctx context.Context, userID int) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+`, a.assigned_date
		 FROM assignments a
		 JOIN products p ON p.id = a.product_id
		 LEFT JOIN categories c ON c.id = p.category_id
		 WHERE a.user_id = ?
		 ORDER BY a.rowid`, userID)
	if err != nil {
		return nil, s.fault("list_assigned_products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, s.fault("list_assigned_products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fault("list_assigned_products", err)
	}
	return products, nil
}

// Close implements Store
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// withTx executes fn within a transaction, automatically handling commit/rollback
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// fault maps database errors onto the storage sentinels. Domain errors pass
// through; anything else is logged and reported as ErrStorageUnavailable.
func (s *SQLiteStorage) fault(op string, err error) error {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict), errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyExists):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	}
	s.logger.Error("Storage operation failed", "operation", op, "error", err)
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// checkUniqueTx rejects u when its username or email belongs to a user other
// than selfID
func checkUniqueTx(ctx context.Context, tx *sql.Tx, u *models.User, selfID int) error {
	var taken int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, u.Username, selfID).Scan(&taken)
	if err != nil {
		return err
	}
	if taken > 0 {
		return &ConflictError{Field: "username"}
	}

	email := models.NormalizeEmail(u.Email)
	if email == "" {
		return nil
	}
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email_normalized = ? AND id <> ?`, email, selfID).Scan(&taken)
	if err != nil {
		return err
	}
	if taken > 0 {
		return &ConflictError{Field: "email"}
	}
	return nil
}

func scanProduct(rows *sql.Rows, withAssigned bool) (models.Product, error) {
	var (
		p            models.Product
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	dest := []any{&p.ID, &p.Name, &p.Brand, &p.Price, &p.Image, &p.Status, &p.Description, &categoryID, &categoryName}
	if withAssigned {
		dest = append(dest, &p.AssignedDate)
	}
	if err := rows.Scan(dest...); err != nil {
		return p, err
	}
	if categoryID.Valid {
		p.Category = &models.Category{ID: int(categoryID.Int64), Name: categoryName.String}
	}
	return p, nil
}
