package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level      string
		Format     string
		Component  string
		Source     bool
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		LogSQL   bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Metrics struct {
		Enabled bool
		Addr    string
	}

	Discovery struct {
		PageSize int
	}

	Session struct {
		TTL time.Duration
	}

	Photos struct {
		ValidatorURL     string
		ValidatorTimeout time.Duration
		MaxUploadBytes   int
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))
	cfg.Log.File = getEnvDefault("LOG_FILE", "")
	cfg.Log.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", 100)
	cfg.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	cfg.Log.MaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", 28)

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.LogSQL = isTruthy(os.Getenv("DB_LOG_SQL"))
	switch cfg.DB.Driver {
	case "sqlite":
		cfg.DB.DSN = getEnvDefault("SQLITE_DSN", "file:imperfect.db?_foreign_keys=on")
	default:
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "imperfect")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Metrics
	cfg.Metrics.Enabled = !isFalsy(os.Getenv("METRICS_ENABLED"))
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", "127.0.0.1:9090")

	// Discovery
	cfg.Discovery.PageSize = getEnvInt("DISCOVERY_PAGE_SIZE", 20)
	if cfg.Discovery.PageSize <= 0 {
		cfg.Discovery.PageSize = 20
	}

	// Sessions
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", 24*time.Hour)

	// Photos
	cfg.Photos.ValidatorURL = getEnvDefault("PHOTO_VALIDATOR_URL", "")
	cfg.Photos.ValidatorTimeout = getEnvDuration("PHOTO_VALIDATOR_TIMEOUT", 15*time.Second)
	cfg.Photos.MaxUploadBytes = getEnvInt("PHOTO_MAX_UPLOAD_BYTES", 10*1024*1024)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := getEnvDefault(k, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := getEnvDefault(k, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return true
	}
	return false
}
