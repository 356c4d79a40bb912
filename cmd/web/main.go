package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/myrjola/petrasession/internal/envstruct"
	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/flightrecorder"
	"github.com/myrjola/petrasession/internal/logging"
	"github.com/myrjola/petrasession/internal/metrics"
	"github.com/myrjola/petrasession/internal/plans"
	"github.com/myrjola/petrasession/internal/postgres"
	"github.com/myrjola/petrasession/internal/sqlite"
	"github.com/myrjola/petrasession/internal/workout"
)

// store is the remote store of plans and finished workouts.
type store interface {
	workout.Store
	plans.Creator
	ListPlans(ctx context.Context) ([]workout.Plan, error)
}

type application struct {
	logger *slog.Logger
	// mu serializes the requests that touch the tracker.
	mu       sync.Mutex
	tracker  *workout.Tracker
	store    store
	metrics  *metrics.Manager
	registry *prometheus.Registry
	// recorder captures a trace on server errors. Nil unless PETRAPP_TRACES_DIR is set.
	recorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"PETRAPP_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the local SQLite database holding the session snapshot. You can use ":memory:" for an
	// ethereal in-memory database.
	SqliteURL string `env:"PETRAPP_SQLITE_URL" envDefault:"./petrasession.sqlite3"`
	// PostgresURL selects PostgreSQL as the store of plans and workouts. The SQLite database is used when empty.
	PostgresURL string `env:"PETRAPP_POSTGRES_URL" envDefault:""`
	// PlansPath is an optional YAML file of plans imported at startup. Existing plans are left untouched.
	PlansPath string `env:"PETRAPP_PLANS_PATH" envDefault:""`
	// BodyWeightKg is used for the calorie estimates.
	BodyWeightKg float64 `env:"PETRAPP_BODY_WEIGHT_KG" envDefault:"70"`
	// TracesDir enables the flight recorder that writes a runtime trace there when a request fails.
	TracesDir string `env:"PETRAPP_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var (
		s        store = workout.NewSQLiteStore(db, logger)
		registry       = metrics.NewRegistry()
	)
	if cfg.PostgresURL != "" {
		var pg *postgres.DB
		if pg, err = postgres.New(ctx, cfg.PostgresURL, logger); err != nil {
			return errors.Wrap(err, "connect to postgres")
		}
		defer pg.Close()
		registry.MustRegister(pg.Collector())
		s = pg
	}

	if cfg.PlansPath != "" {
		var parsed []workout.Plan
		if parsed, err = plans.Load(cfg.PlansPath); err != nil {
			return errors.Wrap(err, "load plans", slog.String("path", cfg.PlansPath))
		}
		if _, err = plans.Import(ctx, s, parsed, logger); err != nil {
			return errors.Wrap(err, "import plans", slog.String("path", cfg.PlansPath))
		}
	}

	m := metrics.NewManager("petrasession", "", registry)
	tracker := workout.NewTracker(
		workout.NewSQLiteSnapshotStore(db, logger),
		s,
		workout.StaticProfile(cfg.BodyWeightKg),
		logger,
		workout.WithObserver(m),
	)
	if _, err = tracker.Resume(ctx); err != nil {
		return errors.Wrap(err, "resume session")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(logger, flightrecorder.Config{
			TracesDirectory: cfg.TracesDir,
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	app := &application{
		logger:   logger,
		mu:       sync.Mutex{},
		tracker:  tracker,
		store:    s,
		metrics:  m,
		registry: registry,
		recorder: recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	var out io.Writer = os.Stdout
	// PETRAPP_LOG_FILE additionally writes the logs to a rotated file. It is read here because the logger is
	// created before run.
	if path, ok := os.LookupEnv("PETRAPP_LOG_FILE"); ok && path != "" {
		w := logging.NewRotatingWriter(os.Stdout, path)
		defer w.Close()
		out = w
	}
	logger := logging.NewLogger(out, slog.LevelDebug)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // exitAfterDefer, the log file is flushed on every write.
	}
}
