package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())

	assert.Equal(t, "./data", cfg.Storage.Root)
	assert.True(t, cfg.Storage.StrictSymlinks)
	assert.Equal(t, int64(100<<20), cfg.Storage.MaxUploadSize)
	assert.Equal(t, int64(1<<20), cfg.Storage.PreviewMaxSize)
	assert.Equal(t, filepath.Join("data", ".users.json"), cfg.Storage.UsersFilePath())

	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "fm_session", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.False(t, cfg.CORS.Enabled())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "127.0.0.1",
		"STORAGE_ROOT":            "/srv/files",
		"STORAGE_USERS_FILE":      "/etc/fm/users.json",
		"STORAGE_HIDDEN":          ".git,**/*.swp",
		"SANDBOX_STRICT_SYMLINKS": "false",
		"MAX_UPLOAD_SIZE":         "2048",
		"PREVIEW_MAX_SIZE":        "512",
		"BCRYPT_COST":             "12",
		"SESSION_TTL":             "30m",
		"SESSION_COOKIE":          "sid",
		"COOKIE_SECURE":           "true",
		"CORS_ORIGINS":            "https://a.example,https://b.example",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "/srv/files", cfg.Storage.Root)
	assert.Equal(t, "/etc/fm/users.json", cfg.Storage.UsersFilePath())
	assert.Equal(t, []string{".git", "**/*.swp"}, cfg.Storage.Hidden)
	assert.False(t, cfg.Storage.StrictSymlinks)
	assert.Equal(t, int64(2048), cfg.Storage.MaxUploadSize)
	assert.Equal(t, int64(512), cfg.Storage.PreviewMaxSize)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
	assert.True(t, cfg.CORS.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable size", "MAX_UPLOAD_SIZE", "lots"},
		{"zero upload size", "MAX_UPLOAD_SIZE", "0"},
		{"negative preview", "PREVIEW_MAX_SIZE", "-1"},
		{"bcrypt cost too low", "BCRYPT_COST", "2"},
		{"bcrypt cost too high", "BCRYPT_COST", "40"},
		{"bad duration", "SESSION_TTL", "forever"},
		{"zero ttl", "SESSION_TTL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		host     string
		wantPort string
		wantHost string
	}{
		{name: "default values", wantPort: "8080", wantHost: "0.0.0.0"},
		{name: "custom port", port: "9000", wantPort: "9000", wantHost: "0.0.0.0"},
		{name: "custom host", host: "localhost", wantPort: "8080", wantHost: "localhost"},
		{name: "custom port and host", port: "3000", host: "127.0.0.1", wantPort: "3000", wantHost: "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.port != "" {
				t.Setenv("PORT", tt.port)
			}
			if tt.host != "" {
				t.Setenv("HOST", tt.host)
			}

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, tt.wantHost, cfg.Server.Host)
		})
	}
}

func TestUsersFileFollowsRoot(t *testing.T) {
	t.Setenv("STORAGE_ROOT", "/var/lib/fm")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/fm", DefaultUsersFile), cfg.Storage.UsersFilePath())
}
