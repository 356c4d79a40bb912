// Package flightrecorder keeps a rolling runtime trace in memory and writes it to disk when a request fails, so
// that slow store calls and rejected transitions can be inspected afterwards.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/myrjola/petrasession/internal/errors"
)

const (
	defaultMinAge   = 2 * time.Minute
	defaultMaxBytes = 32 << 20
	// defaultCooldown is the minimum time between two captures.
	defaultCooldown = 15 * time.Minute
)

// Recorder writes the recent trace window to TracesDirectory on [Recorder.Capture].
type Recorder struct {
	logger   *slog.Logger
	fr       *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// Config configures a Recorder. Zero values fall back to the defaults.
type Config struct {
	TracesDirectory string
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
}

// New creates the traces directory if needed. Call [Recorder.Start] to begin recording.
func New(logger *slog.Logger, cfg Config) (*Recorder, error) {
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only.
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.TracesDirectory))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Recorder{
		logger:      logger,
		fr:          trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		dir:         cfg.TracesDirectory,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.dir),
		slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the trace window to a file named after reason. Captures within the cooldown are skipped.
// It returns the path of the written file or "" when nothing was written.
func (r *Recorder) Capture(ctx context.Context, reason string) string {
	r.mu.Lock()
	now := r.now()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		r.mu.Unlock()
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.Time("last_capture", r.lastCapture))
		return ""
	}
	r.lastCapture = now
	r.mu.Unlock()

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	if err := r.writeTo(path); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace", errors.SlogError(err))
		return ""
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace", slog.String("file", path))
	return path
}

func (r *Recorder) writeTo(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if _, err = r.fr.WriteTo(f); err != nil {
		return errors.Wrap(err, "write trace", slog.String("file", path))
	}
	return nil
}
