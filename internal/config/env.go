package config

import (
	"os"
	"strconv"
)

// FromEnv overlays QBRIDGE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setStr("QBRIDGE_LOG_BACKEND", &cfg.Log.Backend)
	setStr("QBRIDGE_REDIS_URL", &cfg.Log.RedisURL)
	setStr("QBRIDGE_DATA_DIR", &cfg.Log.DataDir)
	setStr("QBRIDGE_FSYNC", &cfg.Log.Fsync)
	setStr("QBRIDGE_STREAM", &cfg.Log.Stream)
	setInt("QBRIDGE_VISIBILITY_MS", &cfg.Log.VisibilityMs)

	setStr("QBRIDGE_GRPC_ADDR", &cfg.Gateway.GRPCAddr)
	setStr("QBRIDGE_HTTP_ADDR", &cfg.Gateway.HTTPAddr)
	setStr("QBRIDGE_FLIGHT_ADDR", &cfg.Gateway.FlightAddr)

	setStr("QBRIDGE_GROUP", &cfg.Buffer.Group)
	setStr("QBRIDGE_CONSUMER", &cfg.Buffer.Consumer)
	setInt("QBRIDGE_BATCH_SIZE", &cfg.Buffer.BatchSize)
	setInt("QBRIDGE_READ_BLOCK_MS", &cfg.Buffer.ReadBlockMs)
	setInt("QBRIDGE_EMPTY_WAIT_MS", &cfg.Buffer.EmptyWaitMs)
	setInt("QBRIDGE_ERROR_WAIT_MS", &cfg.Buffer.ErrorWaitMs)
	setStr("QBRIDGE_DEAD_LETTER_STREAM", &cfg.Buffer.DeadLetterStream)
}
