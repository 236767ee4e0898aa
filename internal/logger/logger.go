package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables to configure the log file path and level.
const (
	envLogPath  = "TTLCACHE_LOG"
	envLogLevel = "TTLCACHE_LOG_LEVEL"
)

var (
	base          = zap.NewNop()
	sugar         = base.Sugar()
	isInitialized bool
)

// InitFromEnv initializes the logger using TTLCACHE_LOG or a default path.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		// Default to the directory where the executable is located
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "ttl-cache.log")
		} else {
			path = "./ttl-cache.log"
		}
	}
	return Init(path, os.Getenv(envLogLevel))
}

// Init initializes the logger to write JSON lines to the provided file path.
// It creates parent directories if needed; the file is opened in append mode.
// The path "stderr" logs to standard error instead.
func Init(path, level string) error {
	if isInitialized {
		return nil
	}
	if path != "stderr" && path != "stdout" {
		if err := ensureParentDir(path); err != nil {
			return err
		}
	}
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		lvl = zapcore.InfoLevel
	}
	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := zc.Build()
	if err != nil {
		return err
	}
	base = l
	sugar = l.Sugar()
	isInitialized = true
	return nil
}

// L returns the structured logger for injection into other packages.
func L() *zap.Logger { return base }

// Close flushes buffered entries.
func Close() error {
	if !isInitialized {
		return nil
	}
	err := base.Sync()
	base = zap.NewNop()
	sugar = base.Sugar()
	isInitialized = false
	return err
}

// Infof logs informational messages.
func Infof(format string, args ...any) { sugar.Infof(format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { sugar.Warnf(format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { sugar.Errorf(format, args...) }

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
