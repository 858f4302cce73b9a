package auth

import (
	"fmt"
	"runtime"
)

// Backend kinds accepted by NewBackend
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// SupportedBackends lists every backend kind
var SupportedBackends = []string{BackendKeyring, BackendFile, BackendMemory}

// DefaultBackend picks the platform's preferred medium: the OS keystore on
// macOS and Windows, the 0600 credentials file elsewhere.
func DefaultBackend() string {
	switch runtime.GOOS {
	case "darwin", "windows":
		return BackendKeyring
	default:
		return BackendFile
	}
}

// NewBackend creates a storage backend by kind.
//   - keyring -> KeyringBackend (location is the keystore service name)
//   - file    -> FileBackend (location is the credentials file path)
//   - memory  -> MemoryBackend
func NewBackend(kind, location string) (Backend, error) {
	switch kind {
	case BackendKeyring:
		return NewKeyringBackend(location), nil
	case BackendFile:
		return NewFileBackend(location)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", kind)
	}
}
