// Package grpcserver hosts the gateway gRPC surface: request submission
// and a liveness probe, served with the hand-maintained wire codec.
package grpcserver
