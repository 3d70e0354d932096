package transport

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryServerLogger logs every unary call with its method, duration and
// status code. Failed calls are logged at warn level.
func UnaryServerLogger(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		logger.Debug().Str("method", info.FullMethod).Msg("grpc request started")

		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		event := logger.Info()
		if st.Code() != codes.OK {
			event = logger.Warn().Str("error", st.Message())
		}
		event.
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Str("code", st.Code().String()).
			Msg("grpc request completed")
		return resp, err
	}
}
