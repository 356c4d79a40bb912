// Package e2etest starts the server in-process and talks to its JSON API.
package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/myrjola/petrasession/internal/logging"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the data source name key used to log the SQL DSN.
const LogDsnKey = "sqlDsn"

// RunFunc has the signature of the server's run function.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// logCapture picks the first values logged under the watched keys.
type logCapture map[string]chan string

func newLogCapture(keys ...string) logCapture {
	c := make(logCapture, len(keys))
	for _, k := range keys {
		c[k] = make(chan string, 1)
	}
	return c
}

func (c logCapture) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if ch, ok := c[a.Key]; ok {
		select {
		case ch <- a.Value.String():
		default:
		}
	}
	return a
}

// StartServer runs the server until the test ends and waits for it to become healthy.
//
// logSink receives the server logs, usually testhelpers.NewWriter. lookupEnv has the signature of [os.LookupEnv].
// run must log the listen address under LogAddrKey and the SQLite DSN under LogDsnKey.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	var (
		capture = newLogCapture(LogAddrKey, LogDsnKey)
		done    = make(chan struct{})
		logger  = slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
			AddSource:   false,
			Level:       slog.LevelDebug,
			ReplaceAttr: capture.replaceAttr,
		})))
	)
	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()
	stop := func() {
		cancel(nil)
		<-done
	}

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			err := context.Cause(ctx)
			stop()
			return nil, fmt.Errorf("server stopped before ready: %w", err)
		case addr = <-capture[LogAddrKey]:
		case dsn = <-capture[LogDsnKey]:
		}
	}

	url := "http://" + addr
	client := NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		stop()
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		stop()
		return nil, fmt.Errorf("open database: %w", err)
	}

	server := &Server{url: url, client: client, db: db, cancel: cancel, done: done}
	t.Cleanup(server.Shutdown)
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB is a connection to the server's SQLite database for inspecting what it stored.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return. It may be called more than once.
func (s *Server) Shutdown() {
	_ = s.db.Close()
	s.cancel(nil)
	<-s.done
}
