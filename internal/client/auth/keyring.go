package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name credentials are filed under
const DefaultKeyringService = "bekosirs"

// KeyringBackend stores credentials in the OS keystore (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux). Each storage key
// becomes one keystore entry under the service name.
type KeyringBackend struct {
	service string
}

// NewKeyringBackend creates a keystore backend
func NewKeyringBackend(service string) *KeyringBackend {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringBackend{service: service}
}

// Name implements Backend
func (k *KeyringBackend) Name() string {
	return "keyring"
}

// Set implements Backend
func (k *KeyringBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keychain: %w", key, err)
	}
	return nil
}

// Get implements Backend
func (k *KeyringBackend) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get %s from keychain: %w", key, err)
	}
	return value, nil
}

// Delete implements Backend
func (k *KeyringBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keychain: %w", key, err)
	}
	return nil
}
