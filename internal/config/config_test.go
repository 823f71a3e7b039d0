package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/imperfect/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DISCOVERY_PAGE_SIZE", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("METRICS_ENABLED", "")

	cfg := config.New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/imperfect")
	assert.Equal(t, 20, cfg.Discovery.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "50051", cfg.GRPC.Port)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_DSN", "file::memory:")
	t.Setenv("DISCOVERY_PAGE_SIZE", "5")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("METRICS_ENABLED", "off")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := config.New()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file::memory:", cfg.DB.DSN)
	assert.Equal(t, 5, cfg.Discovery.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Log.Source)
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DISCOVERY_PAGE_SIZE", "-4")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("REDIS_DB", "abc")

	cfg := config.New()

	assert.Equal(t, 20, cfg.Discovery.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 0, cfg.Redis.DB)
}
