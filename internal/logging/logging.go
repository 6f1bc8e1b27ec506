package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the CLI verbosity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelError Level = "error"
	LevelQuiet Level = "quiet"
)

// ParseLevel validates a level name; the empty name selects info.
func ParseLevel(name string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return LevelInfo, nil
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelError:
		return LevelError, nil
	case LevelQuiet:
		return LevelQuiet, nil
	}
	return "", fmt.Errorf("unsupported log level: %q", name)
}

// New builds a console logger writing to stderr. Quiet returns a no-op logger.
func New(level Level) (*zap.Logger, error) {
	if level == LevelQuiet {
		return zap.NewNop(), nil
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel(level))
	config.DisableStacktrace = true
	config.DisableCaller = level != LevelDebug
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
