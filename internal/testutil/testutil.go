// Package testutil spins up isolated SQLite + miniredis dependencies for
// service tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/cache"
	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/db"
)

// Epoch is the creation time of the first user made by CreateUser.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// one connection keeps shared-cache writes from tripping over each other
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// NewAppContext wires an AppContext over a fresh database and miniredis.
// Logs are discarded.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Photos.ValidatorURL = ""

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests
	return app.New(cfg, NewDB(t), redisCache, log), mr
}

// Defect is a compact defect literal for fixtures: category and title.
type Defect struct {
	Category string
	Title    string
}

// Photo is a compact photo literal for fixtures.
type Photo struct {
	URL       string
	Validated bool
	Primary   bool
}

var created int

// CreateUser inserts a user with the given defects and photos. Each call gets
// a later created_at than the previous one so storage order is deterministic.
func CreateUser(t *testing.T, gdb *gorm.DB, name string, defects []Defect, photos ...Photo) db.User {
	t.Helper()

	created++
	u := db.User{
		Name:      name,
		Age:       30,
		CreatedAt: Epoch.Add(time.Duration(created) * time.Second),
	}
	require.NoError(t, gdb.Omit("Defects", "Photos").Create(&u).Error)

	for i, d := range defects {
		require.NoError(t, gdb.Create(&db.Defect{
			UserID:      u.ID,
			Category:    d.Category,
			Title:       d.Title,
			Description: "desc",
			Position:    i,
		}).Error)
	}
	for i, p := range photos {
		require.NoError(t, gdb.Create(&db.Photo{
			UserID:      u.ID,
			URL:         p.URL,
			IsValidated: p.Validated,
			IsPrimary:   p.Primary,
			Position:    i,
		}).Error)
	}
	return u
}
