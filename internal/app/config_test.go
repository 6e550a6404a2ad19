package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentmesh/agentmesh/internal/services"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, 1440*time.Hour, cfg.Retention.MessageTTL)
	require.Equal(t, 360*time.Hour, cfg.Retention.NotificationTTL)
	require.Equal(t, 336*time.Hour, cfg.Retention.DeletionGracePeriod)
	// Unset windows fall back to defaults.
	require.Equal(t, 8760*time.Hour, cfg.Retention.ActivityLogTTL)

	require.False(t, cfg.Maintenance.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/agentmesh.sqlite", cfg.Database.Path)
	require.True(t, cfg.Maintenance.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestRetentionPolicyAdapter(t *testing.T) {
	cfg := RetentionConfig{
		MessageTTL:          100 * time.Hour,
		DeletionGracePeriod: 200 * time.Hour,
	}

	policy := cfg.RetentionPolicy()
	require.Equal(t, 100*time.Hour, policy.MessageTTL)
	require.Equal(t, 200*time.Hour, policy.DeletionGracePeriod)

	defaults := services.DefaultRetentionPolicy()
	require.Equal(t, defaults.NotificationTTL, policy.NotificationTTL)
	require.Equal(t, defaults.InactiveWindow, policy.InactiveWindow)
}

func TestDatabaseConfigAdapter(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "postgres",
		Postgres: DBAuthConfig{
			Enabled:  true,
			Host:     "db.internal",
			Port:     5432,
			Database: "mesh",
			Username: "mesh",
			Password: "pw",
		},
	}

	dbCfg := cfg.DatabaseConfig()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "mesh", dbCfg.Name)
	require.Equal(t, "mesh", dbCfg.User)
	require.Equal(t, "pw", dbCfg.Password)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/test.sqlite"}
	require.Equal(t, "./data/test.sqlite", sqlite.DatabaseConfig().Path)
	require.Empty(t, sqlite.DatabaseConfig().Host)
}
