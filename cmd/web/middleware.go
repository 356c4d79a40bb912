package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/logging"
)

// statusRecorder remembers the first status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rec *statusRecorder) WriteHeader(status int) {
	if !rec.written {
		rec.status = status
		rec.written = true
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.written = true
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// secureHeaders sets the headers for a JSON API that is never framed or rendered as a document.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none';")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest logs every request with a trace id, records the request metrics, and wraps the request in a
// runtime/trace task when tracing is enabled. Server errors trigger a flight recorder capture.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := rand.Text()
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()))

		var task *trace.Task
		if trace.IsEnabled() {
			ctx, task = trace.NewTask(ctx, "HTTP "+r.Method+" "+r.URL.Path)
			trace.Log(ctx, "trace_id", traceID)
		}

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, written: false}
		next.ServeHTTP(rec, r.WithContext(ctx))
		duration := time.Since(start)

		if task != nil {
			trace.Logf(ctx, "response", "status=%d duration=%v", rec.status, duration)
			task.End()
		}
		app.metrics.CounterRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		app.metrics.HistRequestDuration.WithLabelValues(r.Method).Observe(duration.Seconds())

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
			if app.recorder != nil {
				app.recorder.Capture(ctx, "server-error")
			}
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", rec.status), slog.Duration("duration", duration))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := errors.DecoratePanic(recover()); err != nil {
				app.metrics.CounterHandlerPanics.Inc()
				app.serverError(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin state-changing requests from browsers.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout times out the request and cancels the context using http.TimeoutHandler.
func (app *application) timeout(next http.Handler) http.Handler {
	timeout := defaultTimeout - (200 * time.Millisecond) //nolint:mnd // writing the response takes time.
	return http.TimeoutHandler(next, timeout, `{"error":"timed out"}`)
}
