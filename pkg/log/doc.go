// Package log provides the structured logging facade used across jsonlog.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that feeds a formatter/outputs
// pipeline, so every component logs through the same shape.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("writer"), log.Str("store", "memory"))
//	l.Info("page created", log.Int("page", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and console, file or null outputs. Redaction and sampling
// are available as options.
//
// # Interop
//
// Libraries that log through the standard library (Pebble among them) can be
// routed through a Logger with RedirectStdLog, or given a *log.Logger from
// ToStdLogger.
package log
