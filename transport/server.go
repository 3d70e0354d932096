package transport

import (
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServerOptions returns the options an order book server needs: the forced
// codec plus logging and, when m is not nil, metrics interceptors.
func ServerOptions(logger zerolog.Logger, m *Metrics) []grpc.ServerOption {
	interceptors := []grpc.UnaryServerInterceptor{UnaryServerLogger(logger)}
	if m != nil {
		interceptors = append(interceptors, m.UnaryServerInterceptor())
	}
	return []grpc.ServerOption{
		grpc.ForceServerCodec(NewCodec(m)),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
}

// NewServer builds a gRPC server serving srv and the standard health service,
// which reports the order book service as serving.
func NewServer(srv OrderBookServer, logger zerolog.Logger, m *Metrics, opts ...grpc.ServerOption) *grpc.Server {
	server := grpc.NewServer(append(ServerOptions(logger, m), opts...)...)
	RegisterService(server, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	return server
}
