package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ESTATEHUB_ADDR", "MAX_PAGE_SIZE", "RESERVED_SUBDOMAINS", "DATABASE_URL", "JWT_SIGNING_KEY", "PLATFORM_DOMAIN"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
	assert.Equal(t, []string{"www", "api"}, cfg.Tenancy.ReservedSubdomains)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.UsesDefaultSigningKey())
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ESTATEHUB_ADDR", ":9000")
	t.Setenv("MAX_PAGE_SIZE", "50")
	t.Setenv("RESERVED_SUBDOMAINS", "www, API ,admin")
	t.Setenv("PLATFORM_DOMAIN", "EstateHub.io")
	t.Setenv("ANALYTICS_COUNT_LIST_VIEWS", "true")
	t.Setenv("ACTIVITY_TOUCH_INTERVAL", "30s")
	t.Setenv("ESTATEHUB_ENV", "production")

	cfg := FromEnv()

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 50, cfg.Catalog.MaxPageSize)
	assert.Equal(t, []string{"www", "api", "admin"}, cfg.Tenancy.ReservedSubdomains)
	assert.Equal(t, "estatehub.io", cfg.Tenancy.PlatformDomain)
	assert.True(t, cfg.Catalog.CountListViews)
	assert.Equal(t, 30*time.Second, cfg.Tenancy.ActivityTouchInterval)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_PAGE_SIZE", "-3")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := FromEnv()

	assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ESTATEHUB_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("ESTATEHUB_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ESTATEHUB_TEST_DOTENV"))

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-file", os.Getenv("ESTATEHUB_TEST_DOTENV"))
}
