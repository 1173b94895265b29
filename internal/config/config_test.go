package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("ONGBOOK_SESSION__SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "ongbook.db", cfg.Database.Path)
	assert.Equal(t, 86400*30, cfg.Session.MaxAge)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session secret")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ongbook.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
database:
  path: /var/lib/ongbook/ongbook.db
session:
  secret: not-a-real-secret
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "/var/lib/ongbook/ongbook.db", cfg.Database.Path)
	assert.Equal(t, "not-a-real-secret", cfg.Session.Secret)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 86400*30, cfg.Session.MaxAge, "unset keys keep their defaults")
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ONGBOOK_SESSION__SECRET", "test-secret")
	t.Setenv("ONGBOOK_SERVER__PORT", "3000")
	t.Setenv("ONGBOOK_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
			Database: DatabaseConfig{Path: "ongbook.db"},
			Session:  SessionConfig{Secret: "test-secret"},
			LogLevel: "info",
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.Server.Port = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Server.Port = 70000
	assert.Error(t, c.Validate())

	c = base()
	c.Database.Path = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Session.Secret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.LogLevel = "verbose"
	assert.Error(t, c.Validate())
}
