package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "library.dat", cfg.Storage.Path)
	assert.Equal(t, library.DefaultMaxBooks, cfg.Limits.MaxBooks)
	assert.Equal(t, library.DefaultMaxBorrowRecords, cfg.Limits.MaxBorrowRecords)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.Admin.Password)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  path: /var/lib/library/library.db
limits:
  max_books: 0
admin:
  username: librarian
  password_hash: $2a$10$abcdefghijklmnopqrstuu
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/library/library.db", cfg.Storage.Path)
	assert.Equal(t, 0, cfg.Limits.MaxBooks)
	assert.Equal(t, library.DefaultMaxBorrowRecords, cfg.Limits.MaxBorrowRecords, "unset keys keep defaults")
	assert.Equal(t, "librarian", cfg.Admin.Username)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuu", cfg.Admin.PasswordHash)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "storage: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LIBRARY_STORE":              "sqlite",
		"LIBRARY_DATA_FILE":          "lib.db",
		"LIBRARY_ADMIN_USERNAME":     "ops",
		"LIBRARY_ADMIN_PASSWORD":     "pw",
		"LIBRARY_LOG_LEVEL":          "warn",
		"LIBRARY_MAX_BOOKS":          "5",
		"LIBRARY_MAX_BORROW_RECORDS": " 7 ",
		"LIBRARY_ADMIN_USERNAME_X":   "ignored",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, StorageConfig{Backend: BackendSQLite, Path: "lib.db"}, cfg.Storage)
	assert.Equal(t, AdminConfig{Username: "ops", Password: "pw"}, cfg.Admin)
	assert.Equal(t, LimitsConfig{MaxBooks: 5, MaxBorrowRecords: 7}, cfg.Limits)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvBadNumber(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "LIBRARY_MAX_BOOKS" {
			return "lots", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "LIBRARY_MAX_BOOKS")
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LIBRARY_DATA_FILE", "from-env.dat")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.dat", cfg.Storage.Path)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "postgres" }, want: "unknown storage backend"},
		{name: "empty path", mutate: func(c *Config) { c.Storage.Path = "" }, want: "storage path is empty"},
		{name: "negative limit", mutate: func(c *Config) { c.Limits.MaxBorrowRecords = -1 }, want: "limits must not be negative"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "chatty" }, want: "log level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	fileStore, err := OpenStore(BackendFile, filepath.Join(dir, "l.dat"), LimitsConfig{})
	require.NoError(t, err)
	assert.IsType(t, &library.FileStore{}, fileStore)

	dbStore, err := OpenStore(BackendSQLite, filepath.Join(dir, "l.db"), LimitsConfig{})
	require.NoError(t, err)
	defer dbStore.Close()
	assert.IsType(t, &library.Database{}, dbStore)

	_, err = OpenStore("tape", "x", LimitsConfig{})
	assert.Error(t, err)
}

func TestAuthenticatorFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.Authenticator()
	assert.Error(t, err, "no password configured")

	cfg.Admin.Password = "4321"
	auth, err := cfg.Authenticator()
	require.NoError(t, err)
	assert.NoError(t, auth.Authenticate("admin", "4321"))
}

func TestManagerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits = LimitsConfig{MaxBooks: 3, MaxBorrowRecords: 4}
	opts := cfg.ManagerOptions(nil)
	assert.Equal(t, 3, opts.MaxBooks)
	assert.Equal(t, 4, opts.MaxBorrowRecords)
}
