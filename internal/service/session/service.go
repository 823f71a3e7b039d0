package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oggyb/imperfect/internal/api"
	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/repository"
	"github.com/oggyb/imperfect/internal/session"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*db.User, error)
}

// Service lets a client pick who they are browsing as.
type Service struct {
	users    UserStore
	sessions *session.Store
	log      *slog.Logger
}

func New(users UserStore, sessions *session.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, sessions: sessions, log: log}
}

// NewService wires the user repository and session store from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return New(repository.NewUserRepository(appCtx.DB), appCtx.Sessions, appCtx.Logger)
}

// SetUser starts a session for userID and returns its token. An empty id
// logs out the session identified by currentToken and returns "".
func (s *Service) SetUser(ctx context.Context, userID, currentToken string) (string, error) {
	if userID == "" {
		return "", s.Logout(ctx, currentToken)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", svcErr.Storage("load user", err)
	}
	if user == nil {
		return "", svcErr.NotFound("user")
	}

	// switching users replaces the old session
	if currentToken != "" {
		if err := s.sessions.Delete(ctx, currentToken); err != nil {
			return "", svcErr.Storage("drop session", err)
		}
	}

	token, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return "", svcErr.Storage("create session", err)
	}
	s.log.Debug("session started", "user", userID)
	return token, nil
}

// CurrentUser returns the user behind token, or nil when there is none.
// A session whose user has been deleted is dropped.
func (s *Service) CurrentUser(ctx context.Context, token string) (*api.User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, session.ErrUnknownToken) {
		return nil, nil
	}
	if err != nil {
		return nil, svcErr.Storage("resolve session", err)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Storage("load user", err)
	}
	if user == nil {
		s.log.Info("session user no longer exists, dropping session", "user", userID)
		if err := s.sessions.Delete(ctx, token); err != nil {
			return nil, svcErr.Storage("drop session", err)
		}
		return nil, nil
	}

	u := api.FromUser(*user)
	return &u, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return svcErr.Storage("drop session", err)
	}
	return nil
}
