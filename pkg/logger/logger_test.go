package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithJSON(true)); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	Get().Info(context.Background(), "json message", String("k", "v"))
	if !strings.Contains(buf.String(), `"msg":"json message"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	SetLevel(0) // info

	l.Info(context.Background(), "scored",
		String("commander", "atraxa"),
		Int("cards", 3),
		Int64("id", 7),
		Float64("score", 0.42),
		Bool("cached", true),
		Duration("took", time.Millisecond),
		Strings("missing", []string{"a"}),
		Any("extra", map[string]int{"x": 1}),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"commander=atraxa", "cards=3", "cached=true", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf).Named("registry").With(String("request_id", "r1"))
	l.Warn(context.Background(), "cache miss")

	out := buf.String()
	if !strings.Contains(out, "component=registry") || !strings.Contains(out, "request_id=r1") {
		t.Fatalf("scoped fields missing: %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	if err := SetLevelString("error"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := SetLevelString("INFO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Info(context.Background(), "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("info should pass at info level, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Error(context.Background(), "dropped")
}
