// Package log provides centralized logging functionality using zap logger.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.SugaredLogger

// Init initializes the package-level logger. When file is non-empty, entries are
// also written to a size-rotated log file.
func Init(debug bool, file string) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	if file != "" {
		rotating := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		})
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), rotating, cfg.Level)
		zapLogger = zapLogger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	log = zapLogger.Sugar()
	return nil
}

func logger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		l, err := zap.NewProduction(zap.AddCallerSkip(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "can't initialize fallback logger: %v\n", err)
			l = zap.NewNop()
		}
		log = l.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugf(template string, args ...any) { logger().Debugf(template, args...) }
func Infof(template string, args ...any)  { logger().Infof(template, args...) }
func Warnf(template string, args ...any)  { logger().Warnf(template, args...) }
func Errorf(template string, args ...any) { logger().Errorf(template, args...) }

// Fatalf logs and exits the process.
func Fatalf(template string, args ...any) { logger().Fatalf(template, args...) }
