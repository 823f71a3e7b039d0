package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/repository"
)

// maxMsgSize leaves room for a profile upload carrying several photos.
const maxMsgSize = 64 << 20

// NewGRPCServer builds a gRPC server with the session and logging
// interceptors, the health service and reflection, and registers all
// provided services.
func NewGRPCServer(appCtx *app.AppContext, registrars ...Registrar) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(appCtx.Logger),
			SessionInterceptor(appCtx.Sessions, repository.NewUserRepository(appCtx.DB), appCtx.Logger),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer, healthServer
}

// StartGRPCServer boots a gRPC server and serves until ctx is cancelled,
// then drains in-flight calls.
func StartGRPCServer(ctx context.Context, appCtx *app.AppContext, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", appCtx.Config.GRPC.Host, appCtx.Config.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer, healthServer := NewGRPCServer(appCtx, registrars...)

	go func() {
		<-ctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}()

	appCtx.Logger.Info("gRPC server listening", "addr", addr)
	return grpcServer.Serve(lis)
}
