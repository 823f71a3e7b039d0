package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/imperfect/internal/cache"
	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/photocheck"
	"github.com/oggyb/imperfect/internal/session"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Sessions   *session.Store
	Photos     photocheck.Validator
	Logger     *slog.Logger
}

// New creates a new AppContext. The photo validator is remote when
// PHOTO_VALIDATOR_URL is set and falls back to auto-approval otherwise.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	var validator photocheck.Validator = photocheck.AutoApprove{}
	if cfg.Photos.ValidatorURL != "" {
		remote := photocheck.NewRemote(cfg.Photos.ValidatorURL, cfg.Photos.ValidatorTimeout, 0)
		validator = photocheck.WithFallback(remote, logger)
	}

	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Sessions:   session.NewStore(rdb, cfg.Session.TTL),
		Photos:     validator,
		Logger:     logger,
	}
}
