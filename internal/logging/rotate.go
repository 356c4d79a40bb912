package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogFileMegabytes = 50
	maxLogFileBackups   = 5
	maxLogFileAgeDays   = 28
)

// NewRotatingWriter writes to w and to the rotated log file at path. Close closes the file.
func NewRotatingWriter(w io.Writer, path string) *RotatingWriter {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogFileMegabytes,
		MaxBackups: maxLogFileBackups,
		MaxAge:     maxLogFileAgeDays,
		LocalTime:  false,
		Compress:   true,
	}
	return &RotatingWriter{Writer: io.MultiWriter(w, file), file: file}
}

// RotatingWriter is returned by [NewRotatingWriter].
type RotatingWriter struct {
	io.Writer
	file *lumberjack.Logger
}

func (w *RotatingWriter) Close() error {
	return w.file.Close() //nolint:wrapcheck // nothing to add.
}
