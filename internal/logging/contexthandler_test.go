package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/myrjola/petrasession/internal/logging"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&buf, slog.LevelDebug)

	ctx := logging.WithAttrs(context.Background(), slog.String("trace_id", "abc"))
	left := logging.WithAttrs(ctx, slog.String("plan_id", "p1"))
	right := logging.WithAttrs(ctx, slog.String("plan_id", "p2"))

	logger.LogAttrs(left, slog.LevelInfo, "left")
	logger.LogAttrs(right, slog.LevelInfo, "right")
	logger.LogAttrs(context.Background(), slog.LevelDebug, "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d: %q", len(lines), buf.String())
	}
	for i, want := range []string{"trace_id=abc plan_id=p1", "trace_id=abc plan_id=p2"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if strings.Contains(lines[2], "trace_id") {
		t.Errorf("expected plain log line without context attributes, got %q", lines[2])
	}
}
