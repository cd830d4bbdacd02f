package bufferrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
	"github.com/Lotargo/Q-Bridge/internal/durlog"
	"github.com/Lotargo/Q-Bridge/internal/retrieval"
	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// Options carries the resolved configuration for the buffer process.
type Options struct {
	Config cfgpkg.Config
	// Handler receives each decoded request. Nil means decode-and-ack
	// only, which is the placeholder behavior until downstream dispatch
	// is wired up.
	Handler retrieval.Handler
}

// Run starts the buffer consumer and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
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

	procLogger.Info("starting qbridge buffer",
		logpkg.Str("backend", cfg.Log.Backend),
		logpkg.Str("stream", cfg.Log.Stream),
		logpkg.Str("group", cfg.Buffer.Group),
		logpkg.Str("consumer", cfg.Buffer.Consumer),
	)

	handler := opts.Handler
	if handler == nil {
		handler = logOnlyHandler(procLogger.With(logpkg.Component("buffer")))
	}
	var dead retrieval.DeadLetter
	if cfg.Buffer.DeadLetterStream != "" {
		dead = retrieval.NewStreamDeadLetter(l, cfg.Buffer.DeadLetterStream)
	}

	consumer := retrieval.New(l, retrieval.Options{
		Stream:     cfg.Log.Stream,
		Group:      cfg.Buffer.Group,
		Consumer:   cfg.Buffer.Consumer,
		BatchSize:  cfg.Buffer.BatchSize,
		ReadBlock:  time.Duration(cfg.Buffer.ReadBlockMs) * time.Millisecond,
		EmptyWait:  time.Duration(cfg.Buffer.EmptyWaitMs) * time.Millisecond,
		ErrorWait:  time.Duration(cfg.Buffer.ErrorWaitMs) * time.Millisecond,
		Handler:    handler,
		DeadLetter: dead,
		Logger:     procLogger.With(logpkg.Component("retrieval")),
	})
	return consumer.Run(sctx)
}

// logOnlyHandler records each decoded request. It stands in for the
// downstream executor until result transfer lands.
func logOnlyHandler(logger logpkg.Logger) retrieval.Handler {
	return func(_ context.Context, req *gatewayv1.InternalRequest) error {
		logger.Info("request retrieved",
			logpkg.Str("request_id", req.RequestId),
			logpkg.Str("agent_id", req.AgentId),
			logpkg.Int("payload_bytes", len(req.Payload)),
			logpkg.Any("metadata", req.Metadata),
		)
		return nil
	}
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
