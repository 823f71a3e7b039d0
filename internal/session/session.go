// Package session carries the current user through a request and keeps
// login tokens in Redis.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/oggyb/imperfect/internal/cache"
)

type ctxKey struct{}

// WithUser returns a context that carries userID as the current user.
// An empty id yields a context with no current user.
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the current user id, or "" when nobody is logged in.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// ErrUnknownToken is returned when a token was never issued or has expired.
var ErrUnknownToken = errors.New("unknown session token")

// Store maps opaque tokens to user ids. Tokens are never stored in clear:
// the Redis key is a blake2b digest of the token.
type Store struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(c *cache.RedisCache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Create issues a new token for userID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.cache.Set(ctx, key(token), userID, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user bound to token and slides its expiry forward.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnknownToken
	}
	userID, err := s.cache.Touch(ctx, key(token), s.ttl)
	if errors.Is(err, cache.ErrMiss) {
		return "", ErrUnknownToken
	}
	return userID, err
}

// Delete drops the session. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.cache.Del(ctx, key(token))
}

func key(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

type tokenKey struct{}

// WithToken stores the raw session token of the request.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// Token returns the raw session token of the request, or "".
func Token(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}
