package grpcserver

import (
	"context"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
)

type healthSvc struct{}

// Check reports process liveness. Durable log reachability is surfaced
// per-submit instead, so a degraded backend does not flap the probe.
func (h *healthSvc) Check(ctx context.Context, _ *gatewayv1.HealthCheckRequest) (*gatewayv1.HealthCheckResponse, error) {
	return &gatewayv1.HealthCheckResponse{Status: "ok"}, nil
}
