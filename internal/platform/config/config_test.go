package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TENANT_ID", "tenant-a")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", cfg.Tenant.ID)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.GRPCPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "scenarios", cfg.NATS.SubjectPrefix)
	assert.Empty(t, cfg.Scenario.CatalogPath)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TENANT_ID", "tenant-b")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "mes")
	t.Setenv("DB_USER", "scenario")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://demo.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "mes", cfg.Database.Database)
	assert.Equal(t, "scenario", cfg.Database.User)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, uint64(42), cfg.Scenario.RandomSeed)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, []string{"http://localhost:3000", "https://demo.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadRequiresTenant(t *testing.T) {
	t.Setenv("TENANT_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TENANT_ID")
}
