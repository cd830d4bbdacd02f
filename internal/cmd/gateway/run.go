package gatewayrun

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Lotargo/Q-Bridge/internal/admission"
	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
	"github.com/Lotargo/Q-Bridge/internal/durlog"
	grpcserver "github.com/Lotargo/Q-Bridge/internal/server/grpc"
	httpserver "github.com/Lotargo/Q-Bridge/internal/server/http"
	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Options carries the resolved configuration for the gateway process.
type Options struct {
	Config cfgpkg.Config
}

// Run starts the gRPC and HTTP gateway servers and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	// layer a local signal context over the provided one so callers
	// without signal handling still shut down cleanly
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := processLogger()
	logpkg.RedirectStdLog(procLogger)

	l, err := openLog(cfg.Log)
	if err != nil {
		return err
	}
	defer l.Close()

	procLogger.Info("starting qbridge gateway",
		logpkg.Str("grpc", cfg.Gateway.GRPCAddr),
		logpkg.Str("http", cfg.Gateway.HTTPAddr),
		logpkg.Str("backend", cfg.Log.Backend),
		logpkg.Str("stream", cfg.Log.Stream),
	)

	adm := admission.New(l, cfg.Log.Stream, procLogger.With(logpkg.Component("admission")))
	gsrv := grpcserver.New(adm, procLogger.With(logpkg.Component("grpc")))
	hsrv := httpserver.New(adm, procLogger.With(logpkg.Component("http")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gsrv.ListenAndServe(sctx, cfg.Gateway.GRPCAddr); err != nil && sctx.Err() == nil {
			log.Printf("grpc error: %v", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, cfg.Gateway.HTTPAddr); err != nil && sctx.Err() == nil {
			log.Printf("http error: %v", err)
		}
	}()

	<-sctx.Done()
	// stop the transports before the log so in-flight submits finish
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	return nil
}

func processLogger() logpkg.Logger {
	cfg := &logpkg.Config{
		Level:  getenvDefault("QBRIDGE_LOG_LEVEL", "info"),
		Format: getenvDefault("QBRIDGE_LOG_FORMAT", "text"),
	}
	logger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return logger
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openLog builds the durable log client described by cfg.
func openLog(cfg cfgpkg.LogConfig) (durlog.Log, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	return durlog.Open(durlog.Options{
		Backend:    cfg.Backend,
		RedisURL:   cfg.RedisURL,
		DataDir:    dataDir,
		Fsync:      fsyncMode(cfg.Fsync),
		Visibility: time.Duration(cfg.VisibilityMs) * time.Millisecond,
	})
}

func fsyncMode(s string) pebblestore.FsyncMode {
	switch s {
	case "never":
		return pebblestore.FsyncModeNever
	case "interval":
		return pebblestore.FsyncModeInterval
	default:
		return pebblestore.FsyncModeAlways
	}
}
