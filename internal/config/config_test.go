package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ADDR", "WEBHOOK_PATH", "DATABASE_URL", "SUPABASE_DB_URL", "SHOPIFY_API_SECRET",
		"MAX_BODY_BYTES", "LOG_LEVEL", "LOG_FORMAT", "READ_HEADER_TIMEOUT", "SHUTDOWN_TIMEOUT", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/app")
	t.Setenv("SHOPIFY_API_SECRET", "shh")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("MAX_BODY_BYTES", "2048")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/webhooks/shopify/orders", cfg.WebhookPath)
	assert.Equal(t, "postgres://u:p@localhost:5432/app", cfg.DatabaseURL)
	assert.Equal(t, "shh", cfg.ShopifySecret)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
	assert.Equal(t, "cli", cfg.Log.Format)
}

func TestLoadSupabaseAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_DB_URL", "postgres://supabase")
	t.Setenv("SHOPIFY_API_SECRET", "shh")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://supabase", cfg.DatabaseURL)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "webhook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
database_url: "sqlite://from-file.db"
shopify_api_secret: "file-secret"
read_header_timeout: 2s
log:
  level: debug
  format: json
`), 0o600))
	t.Setenv("SHOPIFY_API_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "sqlite://from-file.db", cfg.DatabaseURL)
	assert.Equal(t, "env-secret", cfg.ShopifySecret)
	assert.Equal(t, 2*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://x.db")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_API_SECRET")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://x.db")
	t.Setenv("SHOPIFY_API_SECRET", "shh")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoadRejectsBadBodyLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://x.db")
	t.Setenv("SHOPIFY_API_SECRET", "shh")
	t.Setenv("MAX_BODY_BYTES", "1MB")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_BODY_BYTES")
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DatabaseURL = "sqlite://x.db"
	cfg.ShopifySecret = "shh"
	require.NoError(t, cfg.Validate())

	cfg.WebhookPath = "webhook"
	assert.Error(t, cfg.Validate())

	cfg.WebhookPath = "/webhook"
	cfg.MaxBodyBytes = 0
	assert.Error(t, cfg.Validate())
}
