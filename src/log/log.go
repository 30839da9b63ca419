package log

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

var (
	logger logr.Logger
)

func init() {
	if err := Init(true); err != nil {
		panic(err)
	}
}

// Init replaces the global logger. Development mode logs at debug level in
// console format, production mode logs JSON at info level.
func Init(development bool) error {
	newZap := zap.NewProduction
	if development {
		newZap = zap.NewDevelopment
	}

	zapLog, err := newZap()
	if err != nil {
		return err
	}
	logger = zapr.NewLogger(zapLog)
	return nil
}

// SetLogger sets the global logger
func SetLogger(l logr.Logger) {
	logger = l
}

// IntoContext returns a copy of ctx carrying the global logger with the
// given key/value pairs attached.
func IntoContext(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return logr.NewContext(ctx, logger.WithValues(keysAndValues...))
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return logger
}

// Info logs a non-error message with the given key/value pairs as context
func Info(msg string, keysAndValues ...interface{}) {
	logger.Info(msg, keysAndValues...)
}

// Debug logs at verbosity 1
func Debug(msg string, keysAndValues ...interface{}) {
	logger.V(1).Info(msg, keysAndValues...)
}

// Error logs an error message with the given key/value pairs as context
func Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(err, msg, keysAndValues...)
}
