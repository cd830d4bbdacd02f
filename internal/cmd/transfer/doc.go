// Package transferrun boots the transfer process: the Arrow Flight
// endpoint reserved for streaming processed results.
package transferrun
