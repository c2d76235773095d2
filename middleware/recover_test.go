package middleware_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	mw "github.com/xraph/taskq/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecover_ConvertsPanicToError(t *testing.T) {
	m := mw.Recover(discardLogger())

	err := m(newTestJob(), func() error {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("expected an error after panic")
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("error %q does not mention the panic value", err.Error())
	}
}

func TestRecover_PassThrough(t *testing.T) {
	m := mw.Recover(discardLogger())

	called := false
	err := m(newTestJob(), func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_LogsStartAndCompletion(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))
	m := mw.Logging(logger)

	if err := m(newTestJob(), func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "job started") || !strings.Contains(out, "job completed") {
		t.Errorf("log output missing start/completion lines: %q", out)
	}
}
