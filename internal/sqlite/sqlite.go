package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger

	stopOptimizer context.CancelFunc
	optimizerDone chan struct{}
}

// NewDatabase connects to a database and migrates the schema.
//
// It establishes two database connections, one for read/write operations and one for read-only operations.
// This is a best practice mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	var (
		err error
		db  *Database
	)

	if db, err = connect(ctx, url, logger); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrateTo: %w", err), db.Close())
	}

	var optimizerCtx context.Context
	optimizerCtx, db.stopOptimizer = context.WithCancel(ctx)
	db.optimizerDone = make(chan struct{})
	go func() {
		defer close(db.optimizerDone)
		db.startDatabaseOptimizer(optimizerCtx, time.Hour)
	}()

	return db, nil
}

//nolint:gochecknoglobals // once is used to ensure that the SQLite driver is registered only once.
var once sync.Once

const optimizedDriver = "sqlite3optimized"

// registerOptimizedDriver that executes performance-enhancing pragmas on connection.
func registerOptimizedDriver() {
	sql.Register(optimizedDriver,
		&sqlite3.SQLiteDriver{
			Extensions: nil,
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if _, err := conn.Exec(
					// Temporary tables and indices live in memory.
					"PRAGMA temp_store = memory;"+
						// Memory-mapped I/O reduces syscalls.
						"PRAGMA mmap_size = 30000000000;", nil); err != nil {
					return fmt.Errorf("exec optimization pragmas: %w", err)
				}
				return nil
			},
		})
}

// dsns returns the read-write and the read-only data source names of url.
//
// Options prefixed with underscore are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open,
// the rest are SQLite URI parameters documented at https://www.sqlite.org/uri.html.
func dsns(url string) (string, string) {
	common := strings.Join([]string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	readWriteMode, readMode := "&mode=rwc", "&mode=ro"
	// In-memory databases need shared cache mode so that both pools see the same data. Every in-memory database
	// gets a random name so that parallel tests stay isolated. See https://www.sqlite.org/inmemorydb.html.
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		readWriteMode = "&mode=memory&cache=shared"
		readMode = readWriteMode
	}
	return fmt.Sprintf("file:%s?_txlock=immediate&%s%s", url, common, readWriteMode),
		fmt.Sprintf("file:%s?_txlock=deferred&_query_only=true&%s%s", url, common, readMode)
}

// openPool opens a pool of at most maxConns connections that live for an hour.
func openPool(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(optimizedDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)
	return db, nil
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	once.Do(registerOptimizedDriver)
	readWriteDSN, readDSN := dsns(url)

	// A single writer avoids SQLITE_BUSY under concurrent session writes.
	readWriteDB, err := openPool(readWriteDSN, 1)
	if err != nil {
		return nil, fmt.Errorf("read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", readWriteDSN))

	// sql.DB is lazy so ping to make sure the database file gets created.
	if err = readWriteDB.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping read-write database: %w", err), readWriteDB.Close())
	}

	maxReadConns := 10
	readDB, err := openPool(readDSN, maxReadConns)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read database: %w", err), readWriteDB.Close())
	}

	return &Database{
		ReadWrite:     readWriteDB,
		ReadOnly:      readDB,
		logger:        logger,
		stopOptimizer: nil,
		optimizerDone: nil,
	}, nil
}

// Close stops the optimizer and closes the database connections.
func (db *Database) Close() error {
	if db.stopOptimizer != nil {
		db.stopOptimizer()
		<-db.optimizerDone
	}
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}

// Rollback returns a function that rolls back tx unless it has already been committed.
//
// Meant to be deferred right after starting the transaction.
func (db *Database) Rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				slog.Any("error", fmt.Errorf("rollback transaction: %w", err)))
		}
	}
}
