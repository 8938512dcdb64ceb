package grpc

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	calbookv1 "calbook/internal/api/calbook/v1"
	"calbook/internal/telemetry"
)

type ServerOptions struct {
	RequestTimeout time.Duration
	RateLimit      rate.Limit
	RateBurst      int
	Metrics        *telemetry.Metrics
}

// NewServer builds a gRPC server with the scheduling service registered, plus
// the directory service when dir is non-nil.
// Interceptors run in order: metrics, request id, rate limit, timeout.
func NewServer(svc bookingService, dir directoryService, log *slog.Logger, opts ServerOptions, extra ...grpc.ServerOption) *grpc.Server {
	var obs rpcObserver
	if opts.Metrics != nil {
		obs = opts.Metrics
	}

	serverOpts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			metricsInterceptor(obs),
			requestIDInterceptor(),
			rateLimitInterceptor(opts.RateLimit, opts.RateBurst),
			defaultRequestTimeoutInterceptor(opts.RequestTimeout),
		),
	}
	serverOpts = append(serverOpts, extra...)

	s := grpc.NewServer(serverOpts...)
	calbookv1.RegisterSchedulingServiceServer(s, NewSchedulingServer(svc, log))
	if dir != nil {
		calbookv1.RegisterDirectoryServiceServer(s, NewDirectoryServer(dir, log))
	}
	return s
}
