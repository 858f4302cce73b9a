package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bekosirs/bekoctl/internal/client/auth"
	"github.com/bekosirs/bekoctl/internal/logging"
)

const (
	// EnvPrefix prefixes every environment variable read by bekoctl
	EnvPrefix = "BEKOSIRS"
	// ConfigFileEnvVar names a config file when --config is not given
	ConfigFileEnvVar = "BEKOSIRS_CONFIG_FILE"
	// DefaultBaseURL is where the service listens in local development
	DefaultBaseURL = "http://localhost:8000"
)

// Config holds all configuration for the bekoctl client
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig locates the service
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the credential backend
type StorageConfig struct {
	Backend        string `mapstructure:"backend"`         // keyring | file | memory
	Path           string `mapstructure:"path"`            // file backend location
	KeyringService string `mapstructure:"keyring_service"` // keyring service name
}

// SessionConfig holds session policy
type SessionConfig struct {
	AutoLogout bool `mapstructure:"auto_logout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewViper creates a new viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("storage.backend", auth.DefaultBackend())
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.keyring_service", auth.DefaultKeyringService)
	v.SetDefault("session.auto_logout", true)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	// Bind environment variables with BEKOSIRS_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadConfigFile reads configFile into v. An empty name falls back to
// BEKOSIRS_CONFIG_FILE; when neither is set only defaults and env apply.
func ReadConfigFile(v *viper.Viper, configFile string) error {
	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnvVar)
	}
	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load loads configuration from defaults, an optional file and the environment
func Load(configFile string) (*Config, error) {
	v := NewViper()
	if err := ReadConfigFile(v, configFile); err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a pre-configured viper instance
// This allows CLI flags to be bound before loading
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.API.BaseURL = NormalizeURL(cfg.API.BaseURL)
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := ValidateURL(c.API.BaseURL); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if !slices.Contains(auth.SupportedBackends, c.Storage.Backend) {
		return fmt.Errorf("storage.backend must be one of %s", strings.Join(auth.SupportedBackends, ", "))
	}

	if !slices.Contains(logging.Levels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn, or error")
	}
	if !slices.Contains(logging.Formats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be json or text")
	}

	return nil
}

// BackendLocation returns the location argument for auth.NewBackend
func (c *Config) BackendLocation() string {
	switch c.Storage.Backend {
	case auth.BackendKeyring:
		return c.Storage.KeyringService
	case auth.BackendFile:
		return c.Storage.Path
	default:
		return ""
	}
}
