package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const keyLogger ctxKey = "logger"

// WithContext stores a request-scoped logger.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, l)
}

// FromContext returns the request-scoped logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(keyLogger).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}
