package log

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	setLogger(zap.New(core, zap.AddCaller()))
	t.Cleanup(func() {
		ConfigureLogger(Config{DisableStacktrace: true})
	})
	return logs
}

func TestCallerIsReported(t *testing.T) {
	logs := observe(t)

	Infow("package function")
	Named("listing").Infow("named logger")
	With("listing_id", "1").Errorw("child logger")
	FromContext(context.Background()).Infow("context fallback")

	ctx := ToContext(context.Background(), Base())
	AddFields(ctx, "request_id", "abc")
	ExtractLogger(ctx).Infow("request logger")

	entries := logs.All()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, have: %d", len(entries))
	}
	for _, e := range entries {
		if file := filepath.Base(e.Caller.File); file != "log_test.go" {
			t.Errorf("%q reported caller %s:%d", e.Message, file, e.Caller.Line)
		}
	}
	if name := entries[1].LoggerName; name != "listing" {
		t.Errorf("wrong logger name: %q", name)
	}
	if fields := entries[4].ContextMap(); fields["request_id"] != "abc" {
		t.Errorf("missing request fields: %v", fields)
	}
}
