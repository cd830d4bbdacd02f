package transferrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
	flightserver "github.com/Lotargo/Q-Bridge/internal/server/flight"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Options carries the resolved configuration for the transfer process.
type Options struct {
	Config cfgpkg.Config
}

// Run starts the Arrow Flight server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := processLogger()
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("starting qbridge transfer",
		logpkg.Str("flight", cfg.Gateway.FlightAddr),
	)

	srv := flightserver.New(procLogger.With(logpkg.Component("flight")))
	err := srv.ListenAndServe(sctx, cfg.Gateway.FlightAddr)
	srv.Close()
	return err
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
