package observability

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.SugaredLogger
	loggerMu sync.RWMutex
)

func init() {
	// Default logger so packages can log before InitLoggerFromEnv runs.
	l, _ := zap.NewProduction(zap.AddCallerSkip(1))
	logger = l.Sugar()
}

// InitLogger builds the global logger with an explicit level and encoding.
// encoding is "json" or "console".
func InitLogger(level, encoding string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if encoding != "" {
		cfg.Encoding = encoding
	}
	if encoding == "console" {
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	logger = l.Sugar()
	loggerMu.Unlock()
	return logger, nil
}

// InitLoggerFromEnv builds the global logger from LOG_LEVEL and LOG_FORMAT.
func InitLoggerFromEnv() (*zap.SugaredLogger, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	encoding := os.Getenv("LOG_FORMAT")
	if encoding == "" {
		encoding = "json"
	}
	return InitLogger(level, encoding)
}

func current() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Fatalf logs a formatted message and exits.
func Fatalf(format string, args ...interface{}) {
	current().Fatalf(format, args...)
}
