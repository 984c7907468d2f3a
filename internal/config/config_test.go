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
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "mock", cfg.Ledger.Backend)
	assert.Equal(t, 2*time.Second, cfg.Ledger.ConfirmDelay)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.GenAI.Model)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
db:
  driver: postgres
  postgres:
    host: pg.internal
ledger:
  backend: masumi
  confirm_delay: 500ms
  masumi:
    api_key: from-file
`), 0o600))

	t.Setenv("MASUMI_API_KEY", "from-env")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "pg.internal", cfg.DB.Postgres.Host)
	assert.Equal(t, "6543", cfg.DB.Postgres.Port)
	assert.Equal(t, "postgres", cfg.DB.Postgres.User)
	assert.Equal(t, "masumi", cfg.Ledger.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.ConfirmDelay)
	assert.Equal(t, "from-env", cfg.Ledger.Masumi.APIKey)
}

func TestLoadPortEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "solana")
	_, err := Load("")
	require.ErrorContains(t, err, "unknown ledger backend")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LEDGER_CONFIRM_DELAY", "soon")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
