package server

import (
	"context"

	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// UnaryMethod builds a grpc.MethodDesc for a typed unary handler, so services
// can be registered without generated stubs.
//
// Example:
//
//	server.UnaryMethod("imperfect.v1.MatchService", "Like",
//		func(ctx context.Context, srv any, req *LikeRequest) (*LikeResponse, error) {
//			return srv.(*handler).like(ctx, req)
//		})
func UnaryMethod[Req, Resp any](
	service, method string,
	call func(ctx context.Context, srv any, req *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, srv, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(ctx, srv, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
