package durlog

import (
	"fmt"
	"time"

	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
)

// Backend names accepted by Open.
const (
	BackendRedis    = "redis"
	BackendEmbedded = "embedded"
)

// Options selects and configures a Log backend.
type Options struct {
	// Backend is "redis" or "embedded".
	Backend string
	// RedisURL is the redis:// URL for the redis backend.
	RedisURL string
	// DataDir is the store directory for the embedded backend.
	DataDir string
	// Fsync is the embedded durability mode.
	Fsync pebblestore.FsyncMode
	// Visibility is the redelivery window: how long a delivered-but-
	// unacked entry stays with its consumer before another may claim it.
	Visibility time.Duration
}

// Open builds the configured Log backend.
func Open(opts Options) (Log, error) {
	switch opts.Backend {
	case BackendRedis, "":
		return OpenRedis(opts.RedisURL, opts.Visibility)
	case BackendEmbedded:
		return OpenEmbedded(EmbeddedOptions{DataDir: opts.DataDir, Fsync: opts.Fsync, Visibility: opts.Visibility})
	}
	return nil, fmt.Errorf("durlog: unknown backend %q", opts.Backend)
}
