// Package log provides Q-Bridge's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context, backed by a formatter/outputs
// pipeline. Components receive a Logger at construction and tag it with
// Component; child loggers created through With share the pipeline.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	)
//	l = l.With(log.Component("gateway"))
//	l.Info("server started", log.Str("addr", ":8080"))
//
// Use ApplyConfig to build a logger from a declarative Config (level and
// text/json format). RedirectStdLog routes stdlib logging from
// dependencies through the facade.
package log
