package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output) so the interactive
// TUI owns the terminal.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "DROIDTRIAGE_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks DROIDTRIAGE_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the DROIDTRIAGE_LOG_LEVEL
// environment variable. This is the recommended way to initialize logging
// for commands that want silent mode by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized so nothing ever
		// scribbles over the alternate screen unexpectedly.
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogDeviceEvent logs a device lifecycle event (listed, connected, dropped)
func LogDeviceEvent(serial string, event string) {
	Info("Device event",
		zap.String("serial", serial),
		zap.String("event", event),
	)
}

// LogScanStarted logs the start of a scan against a device
func LogScanStarted(scanID string, serial string, ruleCount int, rulesHash string) {
	Info("Scan started",
		zap.String("scan_id", scanID),
		zap.String("serial", serial),
		zap.Int("rule_count", ruleCount),
		zap.String("rules_sha256", rulesHash),
	)
}

// LogScanEnded logs scan completion. err is nil for a clean finish; scans
// that fail internally still end up here because the UI only ever sees a
// single "ended" signal.
func LogScanEnded(scanID string, err error) {
	if err != nil {
		Warn("Scan ended with error",
			zap.String("scan_id", scanID),
			zap.Error(err),
		)
		return
	}
	Info("Scan ended", zap.String("scan_id", scanID))
}

// LogSuspicion logs a single finding as it is emitted
func LogSuspicion(scanID string, level string, description string) {
	Debug("Suspicion raised",
		zap.String("scan_id", scanID),
		zap.String("level", level),
		zap.String("description", description),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
