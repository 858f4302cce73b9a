package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/bekosirs"
	configFile = "credentials.yaml"
)

// credentialsFile is the on-disk layout of the file backend
type credentialsFile struct {
	Credentials map[string]string `yaml:"credentials"`
}

// FileBackend keeps credentials in a YAML file readable only by the owner.
// Every write replaces the file atomically (temp file + rename).
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// DefaultFilePath returns ~/.config/bekosirs/credentials.yaml
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir, configFile), nil
}

// NewFileBackend creates a file backend; the file is created on first write
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		var err error
		path, err = DefaultFilePath()
		if err != nil {
			return nil, err
		}
	}
	return &FileBackend{path: path}, nil
}

// Name implements Backend
func (f *FileBackend) Name() string {
	return "file"
}

// Path returns the credentials file location
func (f *FileBackend) Path() string {
	return f.path
}

// Set implements Backend
func (f *FileBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.load()
	if err != nil {
		return err
	}
	creds.Credentials[key] = value
	return f.write(creds)
}

// Get implements Backend
func (f *FileBackend) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := creds.Credentials[key]
	if !ok || value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Delete implements Backend. The file itself is removed once it holds no keys.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := creds.Credentials[key]; !ok {
		return nil
	}
	delete(creds.Credentials, key)

	if len(creds.Credentials) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete credentials file: %w", err)
		}
		return nil
	}
	return f.write(creds)
}

// load reads the file; a missing file is an empty credential set
func (f *FileBackend) load() (*credentialsFile, error) {
	creds := &credentialsFile{Credentials: make(map[string]string)}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return creds, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if err := yaml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if creds.Credentials == nil {
		creds.Credentials = make(map[string]string)
	}
	return creds, nil
}

func (f *FileBackend) write(creds *credentialsFile) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".credentials-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	// CreateTemp already uses 0600, but be explicit since this holds secrets
	if err := tempFile.Chmod(0600); err != nil {
		return fmt.Errorf("failed to set credentials file permissions: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tempFile = nil

	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
