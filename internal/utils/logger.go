// Package utils provides utility functions for the loan underwriting engine.
package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance.
var Logger *zap.Logger

var loggerMu sync.Mutex

// ParseLevel maps a LOG_LEVEL string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger initializes the global logger. Lambda functions log JSON to
// stdout; everything else gets the colored development encoder.
func InitLogger(level string) error {
	var config zap.Config
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	logger, err := config.Build(zap.Fields(zap.String("service", "loan-underwriting-engine")))
	if err != nil {
		return err
	}

	SetLogger(logger)
	return nil
}

// SetLogger replaces the global logger. Tests use it with zap.NewNop or an
// observer core.
func SetLogger(logger *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	Logger = logger
}

// GetLogger returns the global logger, initializing if necessary.
func GetLogger() *zap.Logger {
	loggerMu.Lock()
	logger := Logger
	loggerMu.Unlock()

	if logger == nil {
		if err := InitLogger("info"); err != nil {
			SetLogger(zap.NewNop())
		}
		loggerMu.Lock()
		logger = Logger
		loggerMu.Unlock()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if Logger != nil {
		_ = Logger.Sync()
	}
}
