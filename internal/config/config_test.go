package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Log.Backend != "redis" {
		t.Fatalf("default backend: %q", cfg.Log.Backend)
	}
	if cfg.Log.Stream == "" {
		t.Fatalf("default stream empty")
	}
	if cfg.Buffer.BatchSize != 1 || cfg.Buffer.EmptyWaitMs != 500 || cfg.Buffer.ErrorWaitMs != 1000 {
		t.Fatalf("buffer defaults: %+v", cfg.Buffer)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "qbridge.json")
	data := []byte(`{"log":{"backend":"embedded","stream":"requests"},"buffer":{"group":"workers","batchSize":8}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Backend != "embedded" || cfg.Log.Stream != "requests" {
		t.Fatalf("log config: %+v", cfg.Log)
	}
	if cfg.Buffer.Group != "workers" || cfg.Buffer.BatchSize != 8 {
		t.Fatalf("buffer config: %+v", cfg.Buffer)
	}
	// fields absent from the file keep defaults
	if cfg.Buffer.EmptyWaitMs != 500 {
		t.Fatalf("expected default empty wait, got %d", cfg.Buffer.EmptyWaitMs)
	}
}

func TestLoadRejectsNonJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "qbridge.yaml")
	if err := os.WriteFile(file, []byte("log: {}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected error for yaml config")
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("QBRIDGE_LOG_BACKEND", "embedded")
	t.Setenv("QBRIDGE_STREAM", "env-stream")
	t.Setenv("QBRIDGE_BATCH_SIZE", "16")
	t.Setenv("QBRIDGE_EMPTY_WAIT_MS", "not-a-number")

	cfg := Default()
	FromEnv(&cfg)
	if cfg.Log.Backend != "embedded" || cfg.Log.Stream != "env-stream" {
		t.Fatalf("overlay: %+v", cfg.Log)
	}
	if cfg.Buffer.BatchSize != 16 {
		t.Fatalf("batch size: %d", cfg.Buffer.BatchSize)
	}
	if cfg.Buffer.EmptyWaitMs != 500 {
		t.Fatalf("invalid int should keep default, got %d", cfg.Buffer.EmptyWaitMs)
	}
}
