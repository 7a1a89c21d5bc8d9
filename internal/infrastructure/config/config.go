package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// DefaultUsersFile is the credential file name used when STORAGE_USERS_FILE is unset.
const DefaultUsersFile = ".users.json"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Session SessionConfig
	CORS    CORSConfig
	Logging LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// StorageConfig describes the sandboxed tree.
type StorageConfig struct {
	Root           string   `envconfig:"STORAGE_ROOT" default:"./data"`
	UsersFile      string   `envconfig:"STORAGE_USERS_FILE"`
	Hidden         []string `envconfig:"STORAGE_HIDDEN"`
	StrictSymlinks bool     `envconfig:"SANDBOX_STRICT_SYMLINKS" default:"true"`
	MaxUploadSize  int64    `envconfig:"MAX_UPLOAD_SIZE" default:"104857600"`
	PreviewMaxSize int64    `envconfig:"PREVIEW_MAX_SIZE" default:"1048576"`
}

// UsersFilePath returns the credential file, defaulting to a file in the root.
func (s StorageConfig) UsersFilePath() string {
	if s.UsersFile != "" {
		return s.UsersFile
	}
	return filepath.Join(s.Root, DefaultUsersFile)
}

// AuthConfig holds password hashing configuration.
type AuthConfig struct {
	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`
}

// SessionConfig holds session and cookie configuration.
type SessionConfig struct {
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	CookieName    string        `envconfig:"SESSION_COOKIE" default:"fm_session"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS"`
}

// Enabled reports whether any origin is allowed.
func (c CORSConfig) Enabled() bool {
	return len(c.Origins) > 0
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Root:           "./data",
			StrictSymlinks: true,
			MaxUploadSize:  100 << 20,
			PreviewMaxSize: 1 << 20,
		},
		Auth: AuthConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			SweepInterval: time.Minute,
			CookieName:    "fm_session",
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var problems []error

	if c.Server.Port == "" {
		problems = append(problems, errors.New("PORT is empty"))
	}
	if c.Storage.Root == "" {
		problems = append(problems, errors.New("STORAGE_ROOT is empty"))
	}
	if c.Storage.MaxUploadSize <= 0 {
		problems = append(problems, fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.Storage.MaxUploadSize))
	}
	if c.Storage.PreviewMaxSize <= 0 {
		problems = append(problems, fmt.Errorf("PREVIEW_MAX_SIZE must be positive, got %d", c.Storage.PreviewMaxSize))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("BCRYPT_COST must be in [%d, %d], got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL))
	}
	if c.Session.SweepInterval <= 0 {
		problems = append(problems, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.Session.SweepInterval))
	}
	if c.Session.CookieName == "" {
		problems = append(problems, errors.New("SESSION_COOKIE is empty"))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}
