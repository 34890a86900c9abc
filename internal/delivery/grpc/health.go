package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/poisonshell/dream-api/internal/delivery"
)

// CatalogService is reported next to the overall ("") server status.
const CatalogService = "catalog.Catalog"

// HealthHandler publishes store reachability through the standard gRPC health service.
type HealthHandler struct {
	server *health.Server
	store  delivery.Pinger
	log    *logrus.Logger
}

// NewHealthHandler accepts a nil store for storage that is always ready.
// The status is NOT_SERVING until the first Probe.
func NewHealthHandler(store delivery.Pinger, logger *logrus.Logger) *HealthHandler {
	h := &HealthHandler{
		server: health.NewServer(),
		store:  store,
		log:    logger,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Probe pings the store once and publishes the result.
func (h *HealthHandler) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.store.PingContext(pingCtx); err != nil {
			h.log.Warnf("gRPC health: store unreachable: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.set(status)
	return status
}

// Run probes every interval until ctx is done, then reports NOT_SERVING to all watchers.
func (h *HealthHandler) Run(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

func (h *HealthHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(CatalogService, status)
}
