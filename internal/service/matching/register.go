package matching

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/compatibility"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/server"
	"github.com/oggyb/imperfect/internal/session"
)

const serviceName = "imperfect.v1.MatchService"

type DecisionRequest struct {
	ToUserID string `json:"toUserId"`
}

type PassResponse struct{}

type ListMatchesRequest struct{}

type ListMatchesResponse struct {
	Matches []MatchWithProfile `json:"matches"`
}

type CompatibilityRequest struct {
	UserID1 string `json:"userId1"`
	UserID2 string `json:"userId2"`
}

// Server is the gRPC surface of the match manager.
type Server interface {
	Like(ctx context.Context, req *DecisionRequest) (*LikeResult, error)
	Pass(ctx context.Context, req *DecisionRequest) (*PassResponse, error)
	ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error)
	Compatibility(ctx context.Context, req *CompatibilityRequest) (*compatibility.Result, error)
}

type handler struct {
	svc *Service
}

func (h *handler) Like(ctx context.Context, req *DecisionRequest) (*LikeResult, error) {
	res, err := h.svc.RecordLike(ctx, session.UserID(ctx), req.ToUserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &res, nil
}

func (h *handler) Pass(ctx context.Context, req *DecisionRequest) (*PassResponse, error) {
	if err := h.svc.RecordPass(ctx, session.UserID(ctx), req.ToUserID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &PassResponse{}, nil
}

// ListMatches returns the session user's matches; anonymous callers get none.
func (h *handler) ListMatches(ctx context.Context, _ *ListMatchesRequest) (*ListMatchesResponse, error) {
	matches, err := h.svc.Matches(ctx, session.UserID(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMatchesResponse{Matches: matches}, nil
}

func (h *handler) Compatibility(ctx context.Context, req *CompatibilityRequest) (*compatibility.Result, error) {
	if req.UserID1 == "" || req.UserID2 == "" {
		return nil, svcErr.InvalidArgument("userId1 and userId2 are required")
	}
	res, err := h.svc.Compatibility(ctx, req.UserID1, req.UserID2)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &res, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(serviceName, "Like",
			func(ctx context.Context, srv any, req *DecisionRequest) (*LikeResult, error) {
				return srv.(Server).Like(ctx, req)
			}),
		server.UnaryMethod(serviceName, "Pass",
			func(ctx context.Context, srv any, req *DecisionRequest) (*PassResponse, error) {
				return srv.(Server).Pass(ctx, req)
			}),
		server.UnaryMethod(serviceName, "ListMatches",
			func(ctx context.Context, srv any, req *ListMatchesRequest) (*ListMatchesResponse, error) {
				return srv.(Server).ListMatches(ctx, req)
			}),
		server.UnaryMethod(serviceName, "Compatibility",
			func(ctx context.Context, srv any, req *CompatibilityRequest) (*compatibility.Result, error) {
				return srv.(Server).Compatibility(ctx, req)
			}),
	},
	Metadata: "imperfect/v1/match",
}

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, &handler{svc: NewService(r.appCtx)})
}
