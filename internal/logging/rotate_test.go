package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/myrjola/petrasession/internal/logging"
)

func TestNewRotatingWriter(t *testing.T) {
	var (
		stdout bytes.Buffer
		path   = filepath.Join(t.TempDir(), "petrasession.log")
	)
	w := logging.NewRotatingWriter(&stdout, path)
	logger := logging.NewLogger(w, slog.LevelInfo)
	logger.LogAttrs(t.Context(), slog.LevelInfo, "saved workout", slog.String("workout_id", "w-1"))
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	for _, got := range []string{stdout.String(), string(data)} {
		if !strings.Contains(got, "workout_id=w-1") {
			t.Errorf("Expected the record in %q", got)
		}
	}
}
