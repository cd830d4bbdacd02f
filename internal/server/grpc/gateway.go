package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	"github.com/Lotargo/Q-Bridge/internal/admission"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

type gatewaySvc struct {
	adm    *admission.Admitter
	logger logpkg.Logger
}

func (g *gatewaySvc) SubmitRequest(ctx context.Context, req *gatewayv1.InternalRequest) (*gatewayv1.SubmitRequestResponse, error) {
	res, err := g.adm.Submit(ctx, req)
	if err != nil {
		var unavailable *admission.LogUnavailableError
		if errors.As(err, &unavailable) {
			return nil, status.Error(codes.Unavailable, "durable log unavailable")
		}
		g.logger.Error("submit failed", logpkg.Err(err))
		return nil, status.Error(codes.Internal, "failed to admit request")
	}
	return &gatewayv1.SubmitRequestResponse{RequestId: res.RequestID, Status: res.Status}, nil
}
