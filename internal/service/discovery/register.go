package discovery

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/imperfect/internal/app"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/server"
	"github.com/oggyb/imperfect/internal/session"
)

const serviceName = "imperfect.v1.DiscoveryService"

type DiscoverRequest struct{}

type DiscoverResponse struct {
	Profiles []ProfileCard `json:"profiles"`
}

// Server is the gRPC surface of discovery.
type Server interface {
	Discover(ctx context.Context, req *DiscoverRequest) (*DiscoverResponse, error)
}

type handler struct {
	svc *Service
}

// Discover lists candidates for the session user; anonymous callers get an
// empty list.
func (h *handler) Discover(ctx context.Context, _ *DiscoverRequest) (*DiscoverResponse, error) {
	cards, err := h.svc.Discover(ctx, session.UserID(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &DiscoverResponse{Profiles: cards}, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(serviceName, "Discover",
			func(ctx context.Context, srv any, req *DiscoverRequest) (*DiscoverResponse, error) {
				return srv.(Server).Discover(ctx, req)
			}),
	},
	Metadata: "imperfect/v1/discovery",
}

// Registrar ties the Discovery service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Discovery service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, &handler{svc: NewService(r.appCtx)})
}
