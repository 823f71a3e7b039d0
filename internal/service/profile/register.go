package profile

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/imperfect/internal/api"
	"github.com/oggyb/imperfect/internal/app"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/server"
	"github.com/oggyb/imperfect/internal/session"
)

const serviceName = "imperfect.v1.ProfileService"

type CreateProfileResponse struct {
	CreatedProfile
	// SessionToken logs the new user in right away.
	SessionToken string `json:"sessionToken"`
}

type GetProfileRequest struct {
	ID string `json:"id"`
}

type ListUsersRequest struct {
	PaginationToken *string `json:"paginationToken,omitempty"`
	Limit           int     `json:"limit"`
}

type ListUsersResponse struct {
	Users               []api.User `json:"users"`
	NextPaginationToken *string    `json:"nextPaginationToken,omitempty"`
}

type AllUsersRequest struct{}

// Server is the gRPC surface of the profile service.
type Server interface {
	CreateProfile(ctx context.Context, req *ProfileInput) (*CreateProfileResponse, error)
	GetProfile(ctx context.Context, req *GetProfileRequest) (*api.Profile, error)
	ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error)
	AllUsers(ctx context.Context, req *AllUsersRequest) (*ListUsersResponse, error)
}

type handler struct {
	svc      *Service
	sessions *session.Store
}

func (h *handler) CreateProfile(ctx context.Context, req *ProfileInput) (*CreateProfileResponse, error) {
	created, err := h.svc.CreateProfile(ctx, *req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	token, err := h.sessions.Create(ctx, created.User.ID)
	if err != nil {
		return nil, svcErr.Map(svcErr.Storage("create session", err))
	}
	return &CreateProfileResponse{CreatedProfile: created, SessionToken: token}, nil
}

func (h *handler) GetProfile(ctx context.Context, req *GetProfileRequest) (*api.Profile, error) {
	p, err := h.svc.GetProfileWithDetails(ctx, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &p, nil
}

func (h *handler) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	users, next, err := h.svc.ListUsers(ctx, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListUsersResponse{Users: users, NextPaginationToken: next}, nil
}

func (h *handler) AllUsers(ctx context.Context, _ *AllUsersRequest) (*ListUsersResponse, error) {
	users, err := h.svc.AllUsers(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListUsersResponse{Users: users}, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(serviceName, "CreateProfile",
			func(ctx context.Context, srv any, req *ProfileInput) (*CreateProfileResponse, error) {
				return srv.(Server).CreateProfile(ctx, req)
			}),
		server.UnaryMethod(serviceName, "GetProfile",
			func(ctx context.Context, srv any, req *GetProfileRequest) (*api.Profile, error) {
				return srv.(Server).GetProfile(ctx, req)
			}),
		server.UnaryMethod(serviceName, "ListUsers",
			func(ctx context.Context, srv any, req *ListUsersRequest) (*ListUsersResponse, error) {
				return srv.(Server).ListUsers(ctx, req)
			}),
		server.UnaryMethod(serviceName, "AllUsers",
			func(ctx context.Context, srv any, req *AllUsersRequest) (*ListUsersResponse, error) {
				return srv.(Server).AllUsers(ctx, req)
			}),
	},
	Metadata: "imperfect/v1/profile",
}

// Registrar ties the Profile service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Profile service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, &handler{svc: NewService(r.appCtx), sessions: r.appCtx.Sessions})
}
