package postgres_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/myrjola/petrasession/internal/postgres"
	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/testhelpers"
	"github.com/myrjola/petrasession/internal/workout"
)

var _ workout.Store = (*postgres.DB)(nil)

// newTestDB connects to the database in PETRAPP_POSTGRES_URL and empties it. Tests are skipped without it.
func newTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn, ok := os.LookupEnv("PETRAPP_POSTGRES_URL")
	if !ok {
		t.Skip("PETRAPP_POSTGRES_URL not set")
	}
	db, err := postgres.New(t.Context(), dsn, testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(db.Close)
	if _, err = db.Pool.Exec(t.Context(), `TRUNCATE workouts, plan_days, plans`); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	return db
}

func testPlan() workout.Plan {
	return workout.Plan{
		ID:   "plan-1",
		Name: "Full body",
		Days: []workout.PlanDay{{
			ID:        "day-a",
			DayNumber: 1,
			Name:      "Lower body",
			Exercises: []workout.PlanExercise{
				{Name: "Squat", Sets: ptr.Ref(3), Reps: ptr.Ref("5"), WeightKg: ptr.Ref(100.0)},
				{Name: "Plank", Sets: ptr.Ref(2)},
			},
		}},
	}
}

func TestDB_Plans(t *testing.T) {
	ctx := t.Context()
	db := newTestDB(t)

	created, err := db.CreatePlan(ctx, testPlan())
	if err != nil || !created {
		t.Fatalf("Failed to create plan: created=%v err=%v", created, err)
	}
	if created, err = db.CreatePlan(ctx, testPlan()); err != nil || created {
		t.Fatalf("Expected duplicate plan to be ignored: created=%v err=%v", created, err)
	}

	if err = db.UpdatePlanExerciseWeight(ctx, "plan-1", "day-a", 0, 102.5); err != nil {
		t.Fatalf("Failed to update weight: %v", err)
	}
	if err = db.UpdatePlanExerciseWeight(ctx, "plan-1", "day-a", 2, 1); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for index out of range, got %v", err)
	}

	day, err := db.PlanDay(ctx, "plan-1", "day-a")
	if err != nil {
		t.Fatalf("Failed to get plan day: %v", err)
	}
	want := testPlan().Days[0]
	want.PlanID = "plan-1"
	want.Exercises[0].WeightKg = ptr.Ref(102.5)
	if diff := cmp.Diff(want, day); diff != "" {
		t.Errorf("PlanDay() mismatch (-want +got):\n%s", diff)
	}
	if _, err = db.PlanDay(ctx, "plan-1", "missing"); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	plans, err := db.ListPlans(ctx)
	if err != nil {
		t.Fatalf("Failed to list plans: %v", err)
	}
	if len(plans) != 1 || len(plans[0].Days) != 1 {
		t.Errorf("Unexpected plans %+v", plans)
	}
}

func TestDB_Workouts(t *testing.T) {
	ctx := t.Context()
	db := newTestDB(t)

	if _, err := db.LatestWorkout(ctx, "plan-1", "day-a"); !errors.Is(err, workout.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	startedAt := time.Date(2026, 3, 14, 17, 30, 0, 0, time.UTC)
	s := workout.Apply(workout.InitialState(), workout.StartSession{
		PlanID:    "plan-1",
		PlanDay:   testPlan().Days[0],
		StartedAt: startedAt,
	})
	s = workout.Apply(s, workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 5})
	record := workout.BuildRecord(s, uuid.NewString(), startedAt.Add(time.Hour), 400)

	for range 2 {
		if err := db.SaveWorkout(ctx, record); err != nil {
			t.Fatalf("Failed to save workout: %v", err)
		}
	}
	got, err := db.LatestWorkout(ctx, "plan-1", "day-a")
	if err != nil {
		t.Fatalf("Failed to get latest workout: %v", err)
	}
	if diff := cmp.Diff(record, got); diff != "" {
		t.Errorf("LatestWorkout() mismatch (-want +got):\n%s", diff)
	}
}

func TestDB_Collector(t *testing.T) {
	db := newTestDB(t)
	reg := prometheus.NewRegistry()
	if err := reg.Register(db.Collector()); err != nil {
		t.Fatalf("Failed to register collector: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected pool metrics")
	}
}
