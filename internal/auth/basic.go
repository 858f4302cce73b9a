package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/bekosirs/bekoctl/internal/models"
	"github.com/bekosirs/bekoctl/internal/storage"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserConfig represents a user in the users.yaml file
type UserConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"` // bcrypt hash
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Products  []int  `yaml:"products"`
}

// UsersFile represents the structure of users.yaml
type UsersFile struct {
	Users []UserConfig `yaml:"users"`
}

// Accounts verifies passwords against the users in storage
type Accounts struct {
	store  storage.Store
	logger *slog.Logger
}

// NewAccounts creates an account service over store
func NewAccounts(store storage.Store, logger *slog.Logger) *Accounts {
	return &Accounts{
		store:  store,
		logger: logger,
	}
}

// Authenticate checks username and password and returns the user
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("Authentication failed: user not found", "username", username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.logger.Warn("Authentication failed: invalid password", "username", username)
		return nil, ErrInvalidCredentials
	}

	a.logger.Debug("Authentication successful", "username", username)
	return user, nil
}

// Register creates a user with a hashed password
func (a *Accounts) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of userID after checking the old one
func (a *Accounts) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	return a.store.UpdateUser(ctx, user)
}

// ChangeEmail replaces the email of userID after checking the password
func (a *Accounts) ChangeEmail(ctx context.Context, userID int, newEmail, password string) error {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	user.Email = strings.TrimSpace(newEmail)
	return a.store.UpdateUser(ctx, user)
}

// LoadUsersFile seeds store with the users listed in usersFile. Users that
// already exist are skipped.
func LoadUsersFile(ctx context.Context, usersFile string, store storage.Store, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(usersFile)
	if err != nil {
		return 0, fmt.Errorf("failed to read users file: %w", err)
	}

	var usersFileData UsersFile
	if err := yaml.Unmarshal(data, &usersFileData); err != nil {
		return 0, fmt.Errorf("failed to parse users file (invalid YAML syntax): %w", err)
	}

	created := 0
	for _, uc := range usersFileData.Users {
		user := &models.User{
			Username:     uc.Username,
			Email:        uc.Email,
			PasswordHash: uc.Password,
			FirstName:    uc.FirstName,
			LastName:     uc.LastName,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				logger.Debug("Seed user already present", "username", uc.Username)
				continue
			}
			return created, fmt.Errorf("failed to create user %q: %w", uc.Username, err)
		}
		created++

		for _, productID := range uc.Products {
			if err := store.AssignProduct(ctx, user.ID, productID, Today()); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
				logger.Warn("Failed to assign seed product",
					"username", uc.Username,
					"product_id", productID,
					"error", err)
			}
		}
	}

	logger.Info("Users file loaded",
		"users_file", usersFile,
		"user_count", len(usersFileData.Users),
		"created", created)

	return created, nil
}

// SeedUser creates username with a plaintext password, for local development
func SeedUser(ctx context.Context, store storage.Store, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	if err := store.CreateUser(ctx, user); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	return nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Today returns the current date as used for product assignments
func Today() string {
	return time.Now().Format("2006-01-02")
}
