// Package zaplog adapts go.uber.org/zap to the driven.Logger port.
package zaplog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure Logger implements the interface.
var _ driven.Logger = (*Logger)(nil)

// Logger writes key/value pairs as zap fields.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a production JSON logger on stderr. Debug entries are emitted
// only when verbose is set.
func New(verbose bool) (*Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return Wrap(z), nil
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{z: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// With returns a logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{z: l.z.With(keyvals...)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) { l.z.Debugw(msg, keyvals...) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...any) { l.z.Infow(msg, keyvals...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) { l.z.Warnw(msg, keyvals...) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...any) { l.z.Errorw(msg, keyvals...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
