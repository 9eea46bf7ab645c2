package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DataSourceHTTP, cfg.DataSource)
	assert.Equal(t, "http://localhost:5000", cfg.UserAPI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.UserAPI.Timeout)
	assert.False(t, cfg.UserAPI.Breaker)
	assert.False(t, cfg.RefreshOnFailedDelete)
	assert.Equal(t, ArchiveNone, cfg.Archive.Backend)
	assert.Equal(t, AuditNone, cfg.Audit.Backend)
	assert.Equal(t, "useradmin.audit", cfg.Audit.Channel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_SOURCE", "Postgres")
	t.Setenv("USER_API_URL", "https://users.example.com/")
	t.Setenv("USER_API_TIMEOUT", "3s")
	t.Setenv("USER_API_BREAKER", "true")
	t.Setenv("REFRESH_ON_FAILED_DELETE", "1")
	t.Setenv("REPORT_ARCHIVE", "MINIO")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg := LoadConfig()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, DataSourcePostgres, cfg.DataSource)
	assert.Equal(t, "https://users.example.com", cfg.UserAPI.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.UserAPI.Timeout)
	assert.True(t, cfg.UserAPI.Breaker)
	assert.True(t, cfg.RefreshOnFailedDelete)
	assert.Equal(t, ArchiveMinio, cfg.Archive.Backend)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("USER_API_TIMEOUT", "-2s")
	t.Setenv("USER_API_BREAKER", "maybe")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Second, cfg.UserAPI.Timeout)
	assert.False(t, cfg.UserAPI.Breaker)
}
