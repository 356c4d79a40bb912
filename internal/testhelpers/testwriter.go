// Package testhelpers contains helpers shared by the package tests.
package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer implements io.Writer on top of t.Log so that logs show up only for failing tests.
type Writer struct {
	t    *testing.T
	done atomic.Bool
}

// NewWriter creates a Writer that writes to t.Log until the test finishes.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t}
	t.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
//
// Writing after the test has finished panics because it means a goroutine outlived the test,
// usually a server that was not shut down with t.Cleanup.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testwriter: write after test completion, is the server shut down in t.Cleanup?")
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
