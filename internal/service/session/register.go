package session

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/imperfect/internal/api"
	"github.com/oggyb/imperfect/internal/app"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/server"
	"github.com/oggyb/imperfect/internal/session"
)

const serviceName = "imperfect.v1.SessionService"

type SetUserRequest struct {
	UserID string `json:"userId"`
}

type SetUserResponse struct {
	SessionToken string `json:"sessionToken"`
}

type CurrentUserRequest struct{}

type CurrentUserResponse struct {
	User *api.User `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// Server is the gRPC surface of sessions. The token travels in the
// x-session-token header.
type Server interface {
	SetUser(ctx context.Context, req *SetUserRequest) (*SetUserResponse, error)
	CurrentUser(ctx context.Context, req *CurrentUserRequest) (*CurrentUserResponse, error)
	Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error)
}

type handler struct {
	svc *Service
}

func (h *handler) SetUser(ctx context.Context, req *SetUserRequest) (*SetUserResponse, error) {
	token, err := h.svc.SetUser(ctx, req.UserID, session.Token(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SetUserResponse{SessionToken: token}, nil
}

func (h *handler) CurrentUser(ctx context.Context, _ *CurrentUserRequest) (*CurrentUserResponse, error) {
	user, err := h.svc.CurrentUser(ctx, session.Token(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CurrentUserResponse{User: user}, nil
}

func (h *handler) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {
	if err := h.svc.Logout(ctx, session.Token(ctx)); err != nil {
		return nil, svcErr.Map(err)
	}
	return &LogoutResponse{}, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(serviceName, "SetUser",
			func(ctx context.Context, srv any, req *SetUserRequest) (*SetUserResponse, error) {
				return srv.(Server).SetUser(ctx, req)
			}),
		server.UnaryMethod(serviceName, "CurrentUser",
			func(ctx context.Context, srv any, req *CurrentUserRequest) (*CurrentUserResponse, error) {
				return srv.(Server).CurrentUser(ctx, req)
			}),
		server.UnaryMethod(serviceName, "Logout",
			func(ctx context.Context, srv any, req *LogoutRequest) (*LogoutResponse, error) {
				return srv.(Server).Logout(ctx, req)
			}),
	},
	Metadata: "imperfect/v1/session",
}

// Registrar ties the Session service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Session service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Session service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, &handler{svc: NewService(r.appCtx)})
}
