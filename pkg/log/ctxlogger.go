package log

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxMarkerLogger struct{}

var (
	ctxKeyLogger = &ctxMarkerLogger{}
	nullLogger   = zap.NewNop().Sugar()
)

// ctxLogger collects fields for the whole request; handlers and the listing
// flow goroutine may add fields concurrently.
type ctxLogger struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
	fields []interface{}
}

// AddFields adds zap fields to the logger.
func AddFields(ctx context.Context, fields ...interface{}) {
	l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger)
	if !ok || l == nil {
		return
	}
	l.mu.Lock()
	l.fields = append(l.fields, fields...)
	l.mu.Unlock()
}

// ExtractLogger takes the call-scoped Logger from zap middleware.
func ExtractLogger(ctx context.Context) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger)
	if !ok || l == nil {
		return nullLogger
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger.With(l.fields...)
}

// FromContext is ExtractLogger falling back to the default logger
// instead of a no-op one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(ctxKeyLogger).(*ctxLogger); ok && l != nil {
		return ExtractLogger(ctx)
	}
	return Base()
}

// ToContext adds the zap.Logger to the context for extraction later.
// Returning the new context that has been created.
func ToContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	l := &ctxLogger{logger: logger}
	return context.WithValue(ctx, ctxKeyLogger, l)
}
