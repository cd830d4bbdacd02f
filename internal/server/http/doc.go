// Package httpserver exposes the gateway over plain HTTP/JSON: request
// submission and a health probe, mirroring the gRPC surface.
package httpserver
