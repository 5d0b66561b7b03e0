// Package logger provides the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger = zap.NewNop()

// Init builds the global logger. An empty logFile selects the development
// console encoder; otherwise production JSON is written to the file and stdout.
func Init(level string, logFile string) error {
	var cfg zap.Config

	if logFile != "" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{logFile, "stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = log
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries. Safe to call before Init.
func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}
