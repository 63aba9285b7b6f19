package logger_i

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/akolanti/SecoursTech/internal/config"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestLoggerFollowsDefaultHandler(t *testing.T) {
	l := NewLogger("worker")
	buf := captureDefault(t)

	l.With("jobId", "j1").Warn("slow job")

	out := buf.String()
	for _, want := range []string{"component=worker", "jobId=j1", `msg="slow job"`, "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestWithTrace(t *testing.T) {
	buf := captureDefault(t)
	l := NewLogger("router")

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "abc")
	l.WithTrace(ctx).Info("routed")
	l.WithTrace(context.Background()).Info("untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "traceId=abc") {
		t.Errorf("missing trace id: %q", lines[0])
	}
	if strings.Contains(lines[1], "traceId") {
		t.Errorf("unexpected trace id: %q", lines[1])
	}
}
