// Package errors is a drop-in replacement for the standard library errors package that annotates errors with
// structured [slog.Attr] and the source location where they were created or wrapped.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// annotatedError carries the message, the wrapped cause, slog annotations, and the program counter of the caller.
type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	pc          uintptr
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// callerPC returns the program counter of the function skip frames above the caller of callerPC.
func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	// Skip runtime.Callers, callerPC and the exported constructor.
	runtime.Callers(skip+3, pcs[:]) //nolint:mnd // see above.
	return pcs[0]
}

// New creates an error annotated with attrs and the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, cause: nil, annotations: attrs, pc: callerPC(0)}
}

// NewSentinel creates a plain error meant to be compared with [Is]. It carries no source location.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // sentinels are created here.
}

// Wrap annotates err with msg, attrs, and the caller's source location.
//
// Wrap(nil, msg) returns an error with only the message so that callers never lose the context.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, cause: err, annotations: attrs, pc: callerPC(0)}
}

// DecoratePanic converts a recovered panic value into an error pointing at where the panic happened.
//
// It must be called from the deferred function that called recover. Returns nil if excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var (
		pcs       = make([]uintptr, 32) //nolint:mnd // deep enough for deferred calls.
		n         = runtime.Callers(1, pcs)
		frames    = runtime.CallersFrames(pcs[:n])
		panicking = false
		pc        uintptr
	)
	for {
		frame, more := frames.Next()
		if panicking && !strings.HasPrefix(frame.Function, "runtime.") {
			pc = frame.PC
			break
		}
		if frame.Function == "runtime.gopanic" {
			panicking = true
		}
		if !more {
			break
		}
	}
	return &annotatedError{msg: fmt.Sprintf("panic: %v", excp), cause: nil, annotations: nil, pc: pc}
}

// SlogError returns a [slog.Attr] describing err with the message, every annotation found in the chain, and the
// source location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	var (
		annotations []any
		source      string
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.annotations {
			annotations = append(annotations, a)
		}
		if ae.pc != 0 {
			frame, _ := runtime.CallersFrames([]uintptr{ae.pc}).Next()
			if frame.File != "" {
				source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
			}
		}
	})
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotatedError in the chain, outermost first, following joined errors as well.
func walk(err error, visit func(*annotatedError)) {
	for err != nil {
		if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually.
			visit(ae)
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint // same as above.
			for _, e := range joined.Unwrap() {
				walk(e, visit)
			}
			return
		}
		err = stderrors.Unwrap(err)
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
