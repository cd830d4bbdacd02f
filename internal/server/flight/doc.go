// Package flightserver hosts the Arrow Flight endpoint reserved for
// streaming processed results back to callers.
package flightserver
