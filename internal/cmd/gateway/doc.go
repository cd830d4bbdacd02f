// Package gatewayrun boots the gateway process: the gRPC and HTTP
// admission servers wired to the configured durable log.
package gatewayrun
