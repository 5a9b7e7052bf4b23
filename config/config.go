// Package config loads the circulation tool's settings from an optional YAML
// file, then from LIBRARY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"library-circulation/library"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds every setting the CLI needs.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Limits  LimitsConfig  `yaml:"limits"`
	Admin   AdminConfig   `yaml:"admin"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LimitsConfig caps the collections. Zero disables a cap.
type LimitsConfig struct {
	MaxBooks         int `yaml:"max_books"`
	MaxBorrowRecords int `yaml:"max_borrow_records"`
}

// AdminConfig is the single operator credential. PasswordHash is a bcrypt
// hash as printed by `library hash-password`; Password is accepted for
// local setups and hashed at startup.
type AdminConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings used when nothing else is specified.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Backend: BackendFile, Path: "library.dat"},
		Limits: LimitsConfig{
			MaxBooks:         library.DefaultMaxBooks,
			MaxBorrowRecords: library.DefaultMaxBorrowRecords,
		},
		Admin: AdminConfig{Username: "admin"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults (path may be empty) and applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("LIBRARY_STORE", &c.Storage.Backend)
	str("LIBRARY_DATA_FILE", &c.Storage.Path)
	str("LIBRARY_ADMIN_USERNAME", &c.Admin.Username)
	str("LIBRARY_ADMIN_PASSWORD", &c.Admin.Password)
	str("LIBRARY_ADMIN_PASSWORD_HASH", &c.Admin.PasswordHash)
	str("LIBRARY_LOG_LEVEL", &c.Log.Level)
	if err := num("LIBRARY_MAX_BOOKS", &c.Limits.MaxBooks); err != nil {
		return err
	}
	return num("LIBRARY_MAX_BORROW_RECORDS", &c.Limits.MaxBorrowRecords)
}

// Validate checks the settings needed to open a store. Credentials are
// checked separately by the login gate.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q (want %q or %q)", c.Storage.Backend, BackendFile, BackendSQLite))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage path is empty"))
	}
	if c.Limits.MaxBooks < 0 || c.Limits.MaxBorrowRecords < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// OpenStore opens the configured backend.
func (c *Config) OpenStore() (library.Store, error) {
	return OpenStore(c.Storage.Backend, c.Storage.Path, c.Limits)
}

// OpenStore opens a store of the given backend at path.
func OpenStore(backend, path string, limits LimitsConfig) (library.Store, error) {
	switch backend {
	case BackendFile:
		return library.NewFileStore(path, library.Limits{
			MaxBooks:         limits.MaxBooks,
			MaxBorrowRecords: limits.MaxBorrowRecords,
		}), nil
	case BackendSQLite:
		db, err := library.NewDatabase(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// ManagerOptions maps the limits onto library options.
func (c *Config) ManagerOptions(logger *slog.Logger) library.Options {
	return library.Options{
		MaxBooks:         c.Limits.MaxBooks,
		MaxBorrowRecords: c.Limits.MaxBorrowRecords,
		Logger:           logger,
	}
}

// Authenticator builds the login gate from the admin credential.
func (c *Config) Authenticator() (*library.Authenticator, error) {
	return library.NewAuthenticator(c.Admin.Username, c.Admin.Password, c.Admin.PasswordHash)
}
