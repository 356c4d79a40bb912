// Package metrics exports session and HTTP metrics to prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/myrjola/petrasession/internal/workout"
)

// Manager holds the collectors. It implements [workout.Observer].
type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterEvents           *prometheus.CounterVec
	CounterWorkoutsSaved    prometheus.Counter
	CounterProgressions     *prometheus.CounterVec
	CounterCaloriesBurned   prometheus.Counter
	CounterHandlerPanics    prometheus.Counter
	CounterSnapshotFailures prometheus.Counter

	// gauges
	GaugeSessionActive prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistWorkoutDuration prometheus.Histogram
	HistSetsPerWorkout  prometheus.Histogram
}

// NewRegistry returns a registry with the Go runtime, process and build info collectors plus any extra ones.
func NewRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults.
	)
	reg.MustRegister(extra...)
	return reg
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("petrasession", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of handled HTTP requests",
		}, []string{"method", "status"}),
		CounterEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_events_total",
			Help:      "The total number of applied session events",
		}, []string{"type"}),
		CounterWorkoutsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_saved_total",
			Help:      "The total number of finished workouts saved to the store",
		}),
		CounterProgressions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "progressions_total",
			Help:      "The total number of plan weight progressions by outcome",
		}, []string{"outcome"}),
		CounterCaloriesBurned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calories_burned_total",
			Help:      "The estimated kilocalories of all saved workouts",
		}),
		CounterHandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		CounterSnapshotFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "snapshot_failures_total",
			Help:      "The total number of transitions rejected because the snapshot could not be written",
		}),
		GaugeSessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "session_active",
			Help:        "Whether a workout session is in progress",
			ConstLabels: nil,
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method"}),
		HistWorkoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workout_duration_minutes",
			Help:      "Duration of saved workouts in minutes",
			Buckets:   []float64{10, 20, 30, 45, 60, 75, 90, 120, 180},
		}),
		HistSetsPerWorkout: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workout_completed_sets",
			Help:      "Completed sets per saved workout",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

func (m *Manager) EventApplied(t workout.EventType) {
	m.CounterEvents.WithLabelValues(string(t)).Inc()
	switch t {
	case workout.EventStartSession, workout.EventRestoreSession:
		m.GaugeSessionActive.Set(1)
	case workout.EventFinishSession, workout.EventClearSession:
		m.GaugeSessionActive.Set(0)
	default:
	}
}

func (m *Manager) WorkoutSaved(record workout.WorkoutRecord) {
	m.CounterWorkoutsSaved.Inc()
	m.CounterCaloriesBurned.Add(float64(record.CaloriesBurned))
	m.HistWorkoutDuration.Observe(float64(record.DurationMinutes))
	sets := 0
	for _, e := range record.Exercises {
		sets += e.Sets
	}
	m.HistSetsPerWorkout.Observe(float64(sets))
}

func (m *Manager) ProgressionApplied(succeeded, failed int) {
	m.CounterProgressions.WithLabelValues("applied").Add(float64(succeeded))
	m.CounterProgressions.WithLabelValues("failed").Add(float64(failed))
}
