package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewServer returns a gRPC server exposing health checks and reflection.
func NewServer(h *HealthHandler, logger *logrus.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))
	healthpb.RegisterHealthServer(srv, h.server)
	reflection.Register(srv)
	return srv
}

func unaryLogger(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.Warn("gRPC call failed")
		} else {
			entry.Debug("gRPC call completed")
		}
		return resp, err
	}
}
