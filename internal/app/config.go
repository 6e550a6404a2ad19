package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/agentmesh/agentmesh/internal/database"
	"github.com/agentmesh/agentmesh/internal/services"
)

// Config represents the runtime configuration for the AgentMesh lifecycle
// backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RetentionConfig holds the data lifecycle retention windows. Each value is a
// Go duration string in the config file, e.g. "2160h" for 90 days.
type RetentionConfig struct {
	MessageTTL          time.Duration `mapstructure:"message_ttl"`
	NotificationTTL     time.Duration `mapstructure:"notification_ttl"`
	ActivityLogTTL      time.Duration `mapstructure:"activity_log_ttl"`
	PostGracePeriod     time.Duration `mapstructure:"post_grace_period"`
	InactiveWindow      time.Duration `mapstructure:"inactive_window"`
	ExportTTL           time.Duration `mapstructure:"export_ttl"`
	DeletionGracePeriod time.Duration `mapstructure:"deletion_grace_period"`
}

// MaintenanceConfig controls the background lifecycle scheduler.
type MaintenanceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("AGENTMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// RetentionPolicy converts the configured windows to a service policy,
// falling back to defaults for any unset value.
func (c RetentionConfig) RetentionPolicy() services.RetentionPolicy {
	policy := services.DefaultRetentionPolicy()
	if c.MessageTTL > 0 {
		policy.MessageTTL = c.MessageTTL
	}
	if c.NotificationTTL > 0 {
		policy.NotificationTTL = c.NotificationTTL
	}
	if c.ActivityLogTTL > 0 {
		policy.ActivityLogTTL = c.ActivityLogTTL
	}
	if c.PostGracePeriod > 0 {
		policy.PostGracePeriod = c.PostGracePeriod
	}
	if c.InactiveWindow > 0 {
		policy.InactiveWindow = c.InactiveWindow
	}
	if c.ExportTTL > 0 {
		policy.ExportTTL = c.ExportTTL
	}
	if c.DeletionGracePeriod > 0 {
		policy.DeletionGracePeriod = c.DeletionGracePeriod
	}
	return policy
}

// DatabaseConfig converts the loaded settings to the database package's
// connection options, preferring whichever host backend is enabled.
func (c DatabaseConfig) DatabaseConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		if c.Postgres.Enabled {
			cfg.Host = c.Postgres.Host
			cfg.Port = c.Postgres.Port
			cfg.Name = c.Postgres.Database
			cfg.User = c.Postgres.Username
			cfg.Password = c.Postgres.Password
		}
	case "mysql":
		if c.MySQL.Enabled {
			cfg.Host = c.MySQL.Host
			cfg.Port = c.MySQL.Port
			cfg.Name = c.MySQL.Database
			cfg.User = c.MySQL.Username
			cfg.Password = c.MySQL.Password
		}
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/agentmesh.sqlite")

	v.SetDefault("retention.message_ttl", "2160h")          // 90 days
	v.SetDefault("retention.notification_ttl", "720h")      // 30 days
	v.SetDefault("retention.activity_log_ttl", "8760h")     // 365 days
	v.SetDefault("retention.post_grace_period", "720h")     // 30 days
	v.SetDefault("retention.inactive_window", "17520h")     // 730 days
	v.SetDefault("retention.export_ttl", "168h")            // 7 days
	v.SetDefault("retention.deletion_grace_period", "720h") // 30 days

	v.SetDefault("maintenance.enabled", true)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
