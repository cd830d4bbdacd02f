package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Log     LogConfig     `json:"log"`
	Gateway GatewayConfig `json:"gateway"`
	Buffer  BufferConfig  `json:"buffer"`
}

// LogConfig selects and configures the durable log backend.
type LogConfig struct {
	// Backend is "redis" or "embedded".
	Backend string `json:"backend"`
	// RedisURL is the redis:// URL for the redis backend.
	RedisURL string `json:"redisUrl"`
	// DataDir is the embedded backend's store directory. Empty means the
	// OS-specific application data directory.
	DataDir string `json:"dataDir"`
	// Fsync is the embedded durability mode: always|interval|never.
	Fsync string `json:"fsync"`
	// Stream is the stream name requests are buffered on.
	Stream string `json:"stream"`
	// VisibilityMs is the embedded redelivery window in milliseconds.
	VisibilityMs int `json:"visibilityMs"`
}

// GatewayConfig holds the gateway process listen addresses.
type GatewayConfig struct {
	GRPCAddr   string `json:"grpcAddr"`
	HTTPAddr   string `json:"httpAddr"`
	FlightAddr string `json:"flightAddr"`
}

// BufferConfig tunes the buffer consumer loop.
type BufferConfig struct {
	Group    string `json:"group"`
	Consumer string `json:"consumer"`
	// BatchSize caps entries claimed per poll.
	BatchSize int `json:"batchSize"`
	// ReadBlockMs bounds the blocking wait inside one poll.
	ReadBlockMs int `json:"readBlockMs"`
	// EmptyWaitMs is the pause after an empty poll.
	EmptyWaitMs int `json:"emptyWaitMs"`
	// ErrorWaitMs is the pause after a transient poll error.
	ErrorWaitMs int `json:"errorWaitMs"`
	// DeadLetterStream, when set, receives undecodable entries.
	DeadLetterStream string `json:"deadLetterStream"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Log: LogConfig{
			Backend:  "redis",
			RedisURL: "redis://127.0.0.1:6379/",
			Fsync:    "always",
			Stream:   "q_bridge_stream",
		},
		Gateway: GatewayConfig{
			GRPCAddr:   ":50051",
			HTTPAddr:   ":3000",
			FlightAddr: ":50052",
		},
		Buffer: BufferConfig{
			Group:       "q_bridge_group",
			Consumer:    "buffer-consumer-1",
			BatchSize:   1,
			ReadBlockMs: 100,
			EmptyWaitMs: 500,
			ErrorWaitMs: 1000,
		},
	}
}

// Load reads configuration from an optional .env file, then a JSON config
// file (defaults when path is empty), without applying the env overlay.
func Load(path string) (Config, error) {
	// best effort: a missing .env is normal
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if ext := filepath.Ext(path); ext != "" && ext != ".json" {
		return Config{}, fmt.Errorf("config: unsupported extension %q; use JSON", ext)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
