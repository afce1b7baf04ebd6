package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New creates a slog.Logger writing to stdout through a zap core.
// Format is "json" or "console"; anything else falls back to console.
func New(level, format string) *slog.Logger {
	return NewWithWriter(zapcore.Lock(os.Stdout), level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	core := zapcore.NewCore(encoderFor(format), zapcore.AddSync(w), zap.NewAtomicLevelAt(levelFromString(level)))
	return slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true)))
}

func encoderFor(format string) zapcore.Encoder {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func levelFromString(value string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return zapcore.ErrorLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "debug":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
