package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/session"
)

// SessionHeader is the metadata key carrying the session token.
const SessionHeader = "x-session-token"

// UserLookup checks that a session still points at a live user.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*db.User, error)
}

// SessionInterceptor resolves the x-session-token header into a current user.
//
// Behavior:
//   - Missing or unknown tokens leave the request anonymous.
//   - A token whose user no longer exists is deleted and the request stays anonymous.
//   - The raw token is kept in the context for SessionService.
func SessionInterceptor(store *session.Store, users UserLookup, log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		token := tokenFromMetadata(ctx)
		if token == "" {
			return handler(ctx, req)
		}
		ctx = session.WithToken(ctx, token)

		userID, err := store.Resolve(ctx, token)
		if errors.Is(err, session.ErrUnknownToken) {
			return handler(ctx, req)
		}
		if err != nil {
			return nil, svcErr.Map(svcErr.Storage("resolve session", err))
		}

		user, err := users.GetUser(ctx, userID)
		if err != nil {
			return nil, svcErr.Map(svcErr.Storage("load session user", err))
		}
		if user == nil {
			log.Info("session user no longer exists, dropping session", "user", userID)
			if err := store.Delete(ctx, token); err != nil {
				log.Warn("failed to drop session", "err", err)
			}
			return handler(ctx, req)
		}

		return handler(session.WithUser(ctx, userID), req)
	}
}

// LoggingInterceptor logs every call and records its latency.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.ObserveRPC(info.FullMethod, code.String(), start)

		if err != nil {
			log.Warn("rpc failed", "method", info.FullMethod, "code", code.String(), "err", err, "took", time.Since(start))
		} else {
			log.Debug("rpc", "method", info.FullMethod, "took", time.Since(start))
		}
		return resp, err
	}
}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(SessionHeader); len(v) > 0 {
		return v[0]
	}
	return ""
}
