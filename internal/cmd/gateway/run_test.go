package gatewayrun

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	t.Setenv("QBRIDGE_TEST_VAR", "env_value")
	if got := getenvDefault("QBRIDGE_TEST_VAR", "default"); got != "env_value" {
		t.Fatalf("set variable: got %q", got)
	}
	if got := getenvDefault("QBRIDGE_TEST_VAR_UNSET", "default"); got != "default" {
		t.Fatalf("unset variable: got %q", got)
	}
}

func TestFsyncModeMapping(t *testing.T) {
	if fsyncMode("never") != pebblestore.FsyncModeNever {
		t.Fatalf("never not mapped")
	}
	if fsyncMode("interval") != pebblestore.FsyncModeInterval {
		t.Fatalf("interval not mapped")
	}
	if fsyncMode("always") != pebblestore.FsyncModeAlways {
		t.Fatalf("always not mapped")
	}
	if fsyncMode("") != pebblestore.FsyncModeAlways {
		t.Fatalf("empty should default to always")
	}
}

// TestRunIntegration starts the gateway on ephemeral ports against the
// embedded backend and verifies it shuts down with the context.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := cfgpkg.Default()
	cfg.Log.Backend = "embedded"
	cfg.Log.DataDir = t.TempDir()
	cfg.Log.Fsync = "never"
	cfg.Gateway.GRPCAddr = ":0"
	cfg.Gateway.HTTPAddr = ":0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
