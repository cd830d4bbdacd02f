package bufferrun

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
)

// TestRunIntegration starts the consumer against the embedded backend
// and verifies it drains and exits with the context.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := cfgpkg.Default()
	cfg.Log.Backend = "embedded"
	cfg.Log.DataDir = t.TempDir()
	cfg.Log.Fsync = "never"
	cfg.Buffer.ReadBlockMs = 20

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
