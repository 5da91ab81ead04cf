package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
	// Level is shared with the logger's core so config reloads can move it.
	// The zero value means a fresh AtomicLevel at info.
	Level       zap.AtomicLevel
	Broadcaster *telemetry.LogBroadcaster
}

// Logging bundles the logger, its level and the protocol log broadcaster.
type Logging struct {
	Logger      *zap.Logger
	Level       zap.AtomicLevel
	Broadcaster *telemetry.LogBroadcaster
}

// NewLogging constructs logging dependencies.
func NewLogging(cfg LoggingConfig) Logging {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	level := cfg.Level
	if level == (zap.AtomicLevel{}) {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger = logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCore)).Named("app")

	if cfg.Broadcaster != nil {
		return Logging{
			Logger:      logger,
			Level:       level,
			Broadcaster: cfg.Broadcaster,
		}
	}

	logs := telemetry.NewLogBroadcaster(level)
	logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, logs.Core())
	}))

	return Logging{
		Logger:      logger,
		Level:       level,
		Broadcaster: logs,
	}
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

// NewLogBroadcaster returns the broadcaster from a Logging bundle.
func NewLogBroadcaster(logging Logging) *telemetry.LogBroadcaster {
	return logging.Broadcaster
}

// NewLogLevel returns the shared level from a Logging bundle.
func NewLogLevel(logging Logging) zap.AtomicLevel {
	return logging.Level
}
