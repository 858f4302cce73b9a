package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bekosirs/bekoctl/internal/logging"
)

// EnvPrefix prefixes every environment variable read by the stub service
const EnvPrefix = "BEKOSIRS_STUB"

// DevSigningKey signs tokens when no key is configured
const DevSigningKey = "bekosirs-stub-development-key"

// Config holds all configuration for the stub service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Host        string   `mapstructure:"host"`
	CORSOrigins []string `mapstructure:"cors_origins"` // "*" admits any origin
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Path string `mapstructure:"path"` // JSON file, SQLite for *.db or sqlite://, empty for memory
	Seed bool   `mapstructure:"seed"` // install the default catalog when empty
}

// AuthConfig holds account and token configuration
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	UsersFile  string        `mapstructure:"users_file"` // optional users.yaml to seed from
	SeedUsers  []string      `mapstructure:"seed_users"` // user:password pairs
}

// RateLimitConfig bounds login attempts per client
type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute"`
	LoginBurst     int `mapstructure:"login_burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
}

// NewViper creates a new viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.seed", true)
	v.SetDefault("auth.signing_key", DevSigningKey)
	v.SetDefault("auth.access_ttl", "60m")
	v.SetDefault("auth.refresh_ttl", "24h")
	v.SetDefault("auth.users_file", "")
	v.SetDefault("auth.seed_users", []string{})
	v.SetDefault("rate_limit.login_per_minute", 20)
	v.SetDefault("rate_limit.login_burst", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Bind environment variables with BEKOSIRS_STUB_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads configuration from defaults, an optional file and the environment
func Load(configFile string) (*Config, error) {
	v := NewViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
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
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Port 0 picks a free port
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}

	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key cannot be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("auth.access_ttl and auth.refresh_ttl must be positive")
	}
	for _, pair := range c.Auth.SeedUsers {
		if _, _, err := ParseSeedUser(pair); err != nil {
			return err
		}
	}

	if c.RateLimit.LoginPerMinute < 0 || c.RateLimit.LoginBurst < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}

	if !slices.Contains(logging.Levels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn, or error")
	}
	if !slices.Contains(logging.Formats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be json or text")
	}

	return nil
}

// UsesDevSigningKey reports whether tokens are signed with the built-in key
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.SigningKey == DevSigningKey
}

// MaskSigningKey returns a masked version of the signing key for logging
func (c *Config) MaskSigningKey() string {
	if c.Auth.SigningKey == "" {
		return ""
	}
	return "***"
}

// ParseSeedUser splits a user:password pair
func ParseSeedUser(pair string) (string, string, error) {
	username, password, ok := strings.Cut(pair, ":")
	if !ok || username == "" || password == "" {
		return "", "", fmt.Errorf("seed user %q must have the form user:password", pair)
	}
	return username, password, nil
}
