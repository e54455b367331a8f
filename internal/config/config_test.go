package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.PresenceTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.TrashRetention)
	assert.Equal(t, 50, cfg.RateLimit)
	assert.Equal(t, 100, cfg.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Modules.Collab)
	assert.True(t, cfg.Modules.Reports)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("STORE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/worksuite")
	t.Setenv("PRESENCE_TTL", "45s")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, 45*time.Second, cfg.PresenceTTL)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORE", "cassandra")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE", "memory")
	t.Setenv("PRESENCE_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadModulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	content := "collab: true\nsheets: false\nhr: true\nscripts: false\nanalytics: true\nreports: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("WORKSUITE_MODULES", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Modules.Sheets)
	assert.False(t, cfg.Modules.Scripts)
	assert.True(t, cfg.Modules.Collab)
	assert.True(t, cfg.Modules.Analytics)

	t.Setenv("WORKSUITE_MODULES", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
