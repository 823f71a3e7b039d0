package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/imperfect/internal/cache"
	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/session"
)

func TestContextUser(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", session.UserID(ctx))

	ctx = session.WithUser(ctx, "u1")
	assert.Equal(t, "u1", session.UserID(ctx))

	// empty id leaves the context untouched
	assert.Equal(t, "u1", session.UserID(session.WithUser(ctx, "")))

	assert.Equal(t, "", session.Token(ctx))
	assert.Equal(t, "tok", session.Token(session.WithToken(ctx, "tok")))
}

func newStore(t *testing.T, ttl time.Duration) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	return session.NewStore(cache.NewRedisCache(cfg), ttl), mr
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, time.Hour)

	token, err := store.Create(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the raw token never shows up as a key
	assert.False(t, mr.Exists("session:"+token))
	assert.Len(t, mr.Keys(), 1)

	id, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	require.NoError(t, store.Delete(ctx, token))
	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrUnknownToken)

	require.NoError(t, store.Delete(ctx, "never-issued"))
}

func TestStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, time.Minute)

	token, err := store.Create(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(40 * time.Second)
	_, err = store.Resolve(ctx, token)
	require.NoError(t, err)

	mr.FastForward(40 * time.Second)
	_, err = store.Resolve(ctx, token)
	require.NoError(t, err, "activity keeps the session alive")

	mr.FastForward(2 * time.Minute)
	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrUnknownToken)

	_, err = store.Resolve(ctx, "")
	assert.ErrorIs(t, err, session.ErrUnknownToken)
}
