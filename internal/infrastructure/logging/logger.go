package logging

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config options used in creating zap logger
type Config struct {
	FilePath string // log file path, stderr when empty
	Level    string // debug, info, warn or error
	Env      string // production gets ECS json, anything else the colored console
	AppID    string
}

// ContextLogger .
type ContextLogger string

// ContextLoggerKey logger key in request context
const ContextLoggerKey ContextLogger = "logger"

var levels = map[string]zapcore.Level{
	"":      zap.InfoLevel,
	"debug": zap.DebugLevel,
	"info":  zap.InfoLevel,
	"warn":  zap.WarnLevel,
	"error": zap.ErrorLevel,
}

// NewLogger returns a zap logger instance based on given options.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, ok := levels[cfg.Level]
	if !ok {
		return nil, fmt.Errorf("Unknown logging level: %s", cfg.Level)
	}

	var output zapcore.WriteSyncer = os.Stderr
	if cfg.FilePath != "" {
		fd, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, fmt.Errorf("Failed to create logger core: %w", err)
		}
		output = fd
	}

	core := zapcore.NewCore(newEncoder(cfg.Env), output, zap.NewAtomicLevelAt(level))
	logger := zap.New(core, zap.AddStacktrace(zap.ErrorLevel), zap.AddCaller())
	if cfg.AppID != "" {
		logger = logger.With(zap.String("service.name", cfg.AppID))
	}
	return logger, nil
}

func newEncoder(env string) zapcore.Encoder {
	if env != "production" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.CallerKey = "log.origin.file.name"
		return zapcore.NewConsoleEncoder(ec)
	}

	// elastic common schema keys
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "@timestamp"
	ec.MessageKey = "message"
	ec.LevelKey = "log.level"
	ec.CallerKey = "log.origin.file.name"
	ec.StacktraceKey = "error.stack_trace"
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	return zapcore.NewJSONEncoder(ec)
}

// SetLoggerInContext set logger into target context
func SetLoggerInContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ContextLoggerKey, logger)
}

// ExtractLoggerFromContext returns the request logger, or a no-op logger when none was set
func ExtractLoggerFromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if logger, ok := ctx.Value(ContextLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
