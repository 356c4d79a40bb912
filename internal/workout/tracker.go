package workout

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/logging"
)

var (
	ErrNotFound           = errors.NewSentinel("not found")
	ErrNoActiveSession    = errors.NewSentinel("no active session")
	ErrSessionNotFinished = errors.NewSentinel("session not finished")
	ErrUnknownEvent       = errors.NewSentinel("unknown event")
)

// FallbackBodyWeightKg is used for calorie estimates when the profile has no usable body weight.
const FallbackBodyWeightKg = 70.0

// SnapshotStore is the local durable store of the live session.
type SnapshotStore interface {
	// Load returns ErrNotFound when there is no snapshot.
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context) error
}

// Store is the remote store for plans and finished workouts.
type Store interface {
	// PlanDay returns ErrNotFound for unknown plans or days.
	PlanDay(ctx context.Context, planID, dayID string) (PlanDay, error)
	// LatestWorkout returns the most recent workout of the plan day or ErrNotFound.
	LatestWorkout(ctx context.Context, planID, dayID string) (WorkoutRecord, error)
	SaveWorkout(ctx context.Context, record WorkoutRecord) error
	// UpdatePlanExerciseWeight sets the weight of the plan exercise at index without touching the others.
	UpdatePlanExerciseWeight(ctx context.Context, planID, dayID string, index int, weightKg float64) error
}

// ProfileProvider provides the user's body weight.
type ProfileProvider interface {
	BodyWeightKg(ctx context.Context) (float64, error)
}

// StaticProfile is a ProfileProvider with a fixed body weight.
type StaticProfile float64

func (p StaticProfile) BodyWeightKg(context.Context) (float64, error) {
	return float64(p), nil
}

// Observer is notified about what the tracker does, e.g. to export metrics.
type Observer interface {
	EventApplied(t EventType)
	WorkoutSaved(record WorkoutRecord)
	ProgressionApplied(succeeded, failed int)
}

type noopObserver struct{}

func (noopObserver) EventApplied(EventType)      {}
func (noopObserver) WorkoutSaved(WorkoutRecord)  {}
func (noopObserver) ProgressionApplied(_, _ int) {}

// FinishResult is returned by [Tracker.Finish].
type FinishResult struct {
	Record WorkoutRecord `json:"record"`
	// Progressions are the plan updates that were written successfully.
	Progressions []WeightUpdate `json:"progressions"`
}

// Tracker hosts the session state machine and persists every transition.
//
// It writes a snapshot after every transition of an active session so that a restarted process can resume, and
// hands finished sessions to the store. Tracker is not safe for concurrent use.
type Tracker struct {
	snapshots SnapshotStore
	store     Store
	profile   ProfileProvider
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time

	state State
	// planExercises are the plan exercises the session was started from. Loaded lazily after a restore.
	planExercises []PlanExercise
	// finish is set between FINISH_SESSION and the successful save of the workout.
	finish *pendingFinish
}

type pendingFinish struct {
	id         string
	finishedAt time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithObserver registers an observer.
func WithObserver(o Observer) TrackerOption {
	return func(t *Tracker) { t.observer = o }
}

// NewTracker creates a tracker with an inactive session. Call [Tracker.Resume] to pick up a stored snapshot.
func NewTracker(
	snapshots SnapshotStore,
	store Store,
	profile ProfileProvider,
	logger *slog.Logger,
	opts ...TrackerOption,
) *Tracker {
	t := &Tracker{
		snapshots:     snapshots,
		store:         store,
		profile:       profile,
		observer:      noopObserver{},
		logger:        logger,
		now:           time.Now,
		state:         InitialState(),
		planExercises: nil,
		finish:        nil,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	return t.state.Clone()
}

// Dispatch applies e and writes the result through to the snapshot store.
//
// Active sessions are saved. The snapshot is deleted once the session becomes inactive, except after
// FINISH_SESSION where the last active checkpoint is kept until the workout is saved. If the snapshot cannot be
// written the transition is not applied.
func (t *Tracker) Dispatch(ctx context.Context, e Event) (State, error) {
	if start, ok := e.(StartSession); ok && start.StartedAt.IsZero() {
		start.StartedAt = t.now()
		e = start
	}
	ctx = logging.WithAttrs(ctx, slog.String("event", string(e.Type())))

	next := Apply(t.state, e)
	finish := t.finish
	switch e.(type) {
	case FinishSession:
		if finish == nil && t.state.IsActive {
			finish = &pendingFinish{id: uuid.NewString(), finishedAt: t.now()}
		}
	case StartSession, ClearSession, RestoreSession:
		finish = nil
	}

	var err error
	switch {
	case next.IsActive:
		err = t.snapshots.Save(ctx, next)
	case finish != nil:
		// Keep the last active checkpoint so that a failed save stays resumable after a restart.
	default:
		err = t.snapshots.Delete(ctx)
	}
	if err != nil {
		return t.State(), errors.Wrap(err, "write snapshot", slog.String("event", string(e.Type())))
	}

	switch e.(type) {
	case StartSession, ClearSession, RestoreSession:
		t.planExercises = nil
	}
	t.state = next
	t.finish = finish
	t.observer.EventApplied(e.Type())
	t.logger.LogAttrs(ctx, slog.LevelDebug, "applied event",
		slog.String("phase", string(next.Phase)),
		slog.Int("exercise_index", next.CurrentExerciseIndex),
		slog.Int("set_index", next.CurrentSetIndex))
	return t.State(), nil
}

// Resume restores the stored snapshot if it belongs to an active session. Otherwise the state stays inactive and a
// stale snapshot is removed.
func (t *Tracker) Resume(ctx context.Context) (State, error) {
	snapshot, err := t.snapshots.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return t.State(), nil
	}
	if err != nil {
		return t.State(), errors.Wrap(err, "load snapshot")
	}
	if !snapshot.IsActive {
		if err = t.snapshots.Delete(ctx); err != nil {
			return t.State(), errors.Wrap(err, "delete inactive snapshot")
		}
		return t.State(), nil
	}
	state, err := t.Dispatch(ctx, RestoreSession{Snapshot: snapshot})
	if err != nil {
		return state, errors.Wrap(err, "restore session")
	}
	t.logger.LogAttrs(ctx, slog.LevelInfo, "resumed session",
		slog.String("plan_id", state.PlanID),
		slog.String("plan_day_id", state.PlanDayID),
		slog.Int("completed_sets", state.CompletedSetCount()))
	return state, nil
}

// Start loads the plan day and starts a new session from it, overwriting any session in progress.
//
// The most recent workout of the same plan day is returned for display. It is nil for the first workout.
func (t *Tracker) Start(ctx context.Context, planID, dayID string) (State, *WorkoutRecord, error) {
	ctx = logging.WithAttrs(ctx, slog.String("plan_id", planID), slog.String("plan_day_id", dayID))

	var (
		day  PlanDay
		last *WorkoutRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if day, err = t.store.PlanDay(gctx, planID, dayID); err != nil {
			return errors.Wrap(err, "get plan day")
		}
		return nil
	})
	g.Go(func() error {
		record, err := t.store.LatestWorkout(gctx, planID, dayID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			// Only used for display, the session can start without it.
			t.logger.LogAttrs(ctx, slog.LevelWarn, "failed to get latest workout", errors.SlogError(err))
		default:
			last = &record
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return t.State(), nil, err //nolint:wrapcheck // wrapped in the goroutine.
	}

	if t.state.IsActive {
		t.logger.LogAttrs(ctx, slog.LevelInfo, "overwriting active session",
			slog.String("previous_plan_id", t.state.PlanID),
			slog.String("previous_plan_day_id", t.state.PlanDayID))
	}
	state, err := t.Dispatch(ctx, StartSession{PlanID: planID, PlanDay: day, StartedAt: t.now()})
	if err != nil {
		return state, nil, errors.Wrap(err, "start session")
	}
	t.planExercises = slices.Clone(day.Exercises)
	t.logger.LogAttrs(ctx, slog.LevelInfo, "started session", slog.Int("exercises", len(state.Exercises)))
	return state, last, nil
}

// LastWorkout returns the most recent workout of a plan day.
func (t *Tracker) LastWorkout(ctx context.Context, planID, dayID string) (WorkoutRecord, error) {
	record, err := t.store.LatestWorkout(ctx, planID, dayID)
	if err != nil {
		return WorkoutRecord{}, errors.Wrap(err, "get latest workout")
	}
	return record, nil
}

// Finish finishes the session, saves the workout, and applies the weight progressions to the plan.
//
// When the workout cannot be saved the error is returned and the session stays in the summary phase with its
// snapshot intact, so Finish can be retried. Progression failures are logged and skipped.
func (t *Tracker) Finish(ctx context.Context) (FinishResult, error) {
	if !t.state.IsActive && t.finish == nil {
		return FinishResult{}, ErrNoActiveSession
	}
	ctx = logging.WithAttrs(ctx,
		slog.String("plan_id", t.state.PlanID),
		slog.String("plan_day_id", t.state.PlanDayID))

	if t.state.IsActive {
		if _, err := t.Dispatch(ctx, FinishSession{}); err != nil {
			return FinishResult{}, errors.Wrap(err, "finish session")
		}
	}
	if t.finish == nil {
		return FinishResult{}, ErrSessionNotFinished
	}

	bodyWeight := t.BodyWeightKg(ctx)
	calories := EstimateCalories(CalorieInput{
		Exercises:      t.state.Exercises,
		Warmup:         t.state.Warmup,
		BodyWeightKg:   bodyWeight,
		ElapsedMinutes: t.finish.finishedAt.Sub(t.state.StartedAt).Minutes(),
	})
	record := BuildRecord(t.state, t.finish.id, t.finish.finishedAt, calories)

	if err := t.store.SaveWorkout(ctx, record); err != nil {
		return FinishResult{Record: record, Progressions: nil}, errors.Wrap(err, "save workout",
			slog.String("workout_id", record.ID))
	}
	t.observer.WorkoutSaved(record)
	t.logger.LogAttrs(ctx, slog.LevelInfo, "saved workout",
		slog.String("workout_id", record.ID),
		slog.Int("duration_minutes", record.DurationMinutes),
		slog.Int("calories", record.CaloriesBurned))

	progressions := t.applyProgressions(ctx)

	if _, err := t.Dispatch(ctx, ClearSession{}); err != nil {
		// The workout is saved. A leftover snapshot is inactive and removed by the next Resume.
		t.logger.LogAttrs(ctx, slog.LevelError, "failed to clear session", errors.SlogError(err))
		t.state = InitialState()
		t.finish = nil
		t.planExercises = nil
	}
	return FinishResult{Record: record, Progressions: progressions}, nil
}

// applyProgressions writes the weight updates one at a time after the workout has been saved. Failures never
// undo the saved workout, they are logged and the remaining updates continue.
func (t *Tracker) applyProgressions(ctx context.Context) []WeightUpdate {
	plan, err := t.sessionPlan(ctx)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelWarn, "skipping progression, plan unavailable", errors.SlogError(err))
		t.observer.ProgressionApplied(0, 1)
		return []WeightUpdate{}
	}

	applied := []WeightUpdate{}
	failed := 0
	for _, u := range AnalyzeProgression(t.state, plan) {
		if err = t.store.UpdatePlanExerciseWeight(ctx, t.state.PlanID, t.state.PlanDayID,
			u.PlanIndex, u.NewWeightKg); err != nil {
			failed++
			t.logger.LogAttrs(ctx, slog.LevelWarn, "failed to update plan weight",
				slog.Int("plan_index", u.PlanIndex), errors.SlogError(err))
			continue
		}
		applied = append(applied, u)
		t.logger.LogAttrs(ctx, slog.LevelInfo, "progressed plan weight",
			slog.Int("plan_index", u.PlanIndex),
			slog.String("exercise", u.ExerciseName),
			slog.Float64("previous_weight_kg", u.PreviousWeightKg),
			slog.Float64("new_weight_kg", u.NewWeightKg))
	}
	t.observer.ProgressionApplied(len(applied), failed)
	return applied
}

// sessionPlan returns the plan exercises of the session, fetching them when the session was restored.
func (t *Tracker) sessionPlan(ctx context.Context) ([]PlanExercise, error) {
	if t.planExercises != nil {
		return t.planExercises, nil
	}
	if t.state.PlanID == "" {
		return nil, errors.New("session has no plan")
	}
	day, err := t.store.PlanDay(ctx, t.state.PlanID, t.state.PlanDayID)
	if err != nil {
		return nil, errors.Wrap(err, "get plan day")
	}
	t.planExercises = day.Exercises
	return t.planExercises, nil
}

// Discard drops the session without saving it.
func (t *Tracker) Discard(ctx context.Context) error {
	if _, err := t.Dispatch(ctx, ClearSession{}); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

// BodyWeightKg returns the profile's body weight, or FallbackBodyWeightKg when the profile has none.
func (t *Tracker) BodyWeightKg(ctx context.Context) float64 {
	kg, err := t.profile.BodyWeightKg(ctx)
	if err != nil || kg <= 0 {
		attrs := []slog.Attr{slog.Float64("fallback_kg", FallbackBodyWeightKg)}
		if err != nil {
			attrs = append(attrs, errors.SlogError(err))
		}
		t.logger.LogAttrs(ctx, slog.LevelWarn, "body weight unavailable", attrs...)
		return FallbackBodyWeightKg
	}
	return kg
}
