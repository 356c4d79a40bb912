package workout_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/workout"
)

//nolint:gochecknoglobals // test fixture.
var startedAt = time.Date(2026, 3, 14, 17, 30, 0, 0, time.UTC)

func planDay(exercises ...workout.PlanExercise) workout.PlanDay {
	return workout.PlanDay{ID: "day-a", PlanID: "plan-1", DayNumber: 1, Name: "Lower body", Exercises: exercises}
}

func started(exercises ...workout.PlanExercise) workout.State {
	return workout.Apply(workout.InitialState(), workout.StartSession{
		PlanID:    "plan-1",
		PlanDay:   planDay(exercises...),
		StartedAt: startedAt,
	})
}

func applyAll(s workout.State, events ...workout.Event) workout.State {
	for _, e := range events {
		s = workout.Apply(s, e)
	}
	return s
}

func TestApply_StartSession(t *testing.T) {
	prev := applyAll(started(workout.PlanExercise{Name: "Deadlift"}),
		workout.SkipWarmup{}, workout.NextExercise{}, workout.ToggleMode{})

	s := workout.Apply(prev, workout.StartSession{
		PlanID:    "plan-2",
		PlanDay:   workout.PlanDay{ID: "day-b", DayNumber: 2, Name: "Upper", Exercises: []workout.PlanExercise{{Name: "Row"}}},
		StartedAt: startedAt,
	})

	want := workout.InitialState()
	want.PlanID = "plan-2"
	want.PlanDayID = "day-b"
	want.PlanDayNumber = 2
	want.PlanDayName = "Upper"
	want.Exercises = workout.BuildExercises([]workout.PlanExercise{{Name: "Row"}})
	want.StartedAt = startedAt
	want.IsActive = true
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("StartSession mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_Warmup(t *testing.T) {
	warmup := workout.WarmupResult{Description: "Rowing", DurationMinutes: 5, CaloriesBurned: 40, METValue: 7}

	s := workout.Apply(started(workout.PlanExercise{Name: "Squat"}), workout.LogWarmup{Warmup: warmup})
	if s.Phase != workout.PhaseExercise {
		t.Errorf("Expected phase %q, got %q", workout.PhaseExercise, s.Phase)
	}
	if diff := cmp.Diff(&warmup, s.Warmup); diff != "" {
		t.Errorf("Warmup mismatch (-want +got):\n%s", diff)
	}

	// The warmup is immutable once logged.
	again := workout.Apply(s, workout.LogWarmup{Warmup: workout.WarmupResult{Description: "Walk"}})
	if again.Warmup.Description != "Rowing" {
		t.Errorf("Expected warmup to stay, got %q", again.Warmup.Description)
	}

	skipped := workout.Apply(started(workout.PlanExercise{Name: "Squat"}), workout.SkipWarmup{})
	if skipped.Phase != workout.PhaseExercise || skipped.Warmup != nil {
		t.Errorf("Expected exercise phase without warmup, got %q %v", skipped.Phase, skipped.Warmup)
	}
}

func TestApply_LogSet(t *testing.T) {
	plan := workout.PlanExercise{Name: "Squat", Sets: ptr.Ref(2), Reps: ptr.Ref("8"), WeightKg: ptr.Ref(80.0)}
	tests := []struct {
		name          string
		state         workout.State
		event         workout.LogSet
		wantPhase     workout.Phase
		wantSetIndex  int
		wantWeight    *float64
		wantCompleted bool
	}{
		{
			name:          "first set goes to rest",
			state:         applyAll(started(plan), workout.SkipWarmup{}),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 8},
			wantPhase:     workout.PhaseRest,
			wantSetIndex:  1,
			wantWeight:    ptr.Ref(80.0),
			wantCompleted: true,
		},
		{
			name:          "last set wraps the cursor and keeps the phase",
			state:         applyAll(started(plan), workout.SkipWarmup{}),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 1, Reps: 6, WeightKg: ptr.Ref(85.0)},
			wantPhase:     workout.PhaseExercise,
			wantSetIndex:  0,
			wantWeight:    ptr.Ref(85.0),
			wantCompleted: true,
		},
		{
			name:          "timer disabled stays in exercise",
			state:         applyAll(started(plan), workout.SkipWarmup{}, workout.ToggleTimer{}),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 8},
			wantPhase:     workout.PhaseExercise,
			wantSetIndex:  1,
			wantWeight:    ptr.Ref(80.0),
			wantCompleted: true,
		},
		{
			name:          "set logged during warm-up goes to rest",
			state:         started(plan),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 8},
			wantPhase:     workout.PhaseRest,
			wantSetIndex:  1,
			wantWeight:    ptr.Ref(80.0),
			wantCompleted: true,
		},
		{
			name:          "correction in the summary stays in the summary",
			state:         applyAll(started(plan), workout.SkipWarmup{}, workout.FinishSession{}),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 7},
			wantPhase:     workout.PhaseSummary,
			wantSetIndex:  1,
			wantWeight:    ptr.Ref(80.0),
			wantCompleted: true,
		},
		{
			name:          "out of range is a no-op",
			state:         applyAll(started(plan), workout.SkipWarmup{}),
			event:         workout.LogSet{ExerciseIndex: 0, SetIndex: 2, Reps: 8},
			wantPhase:     workout.PhaseExercise,
			wantSetIndex:  0,
			wantWeight:    ptr.Ref(80.0),
			wantCompleted: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := workout.Apply(tt.state, tt.event)
			if s.Phase != tt.wantPhase {
				t.Errorf("Expected phase %q, got %q", tt.wantPhase, s.Phase)
			}
			if s.CurrentSetIndex != tt.wantSetIndex {
				t.Errorf("Expected set index %d, got %d", tt.wantSetIndex, s.CurrentSetIndex)
			}
			setIndex := min(tt.event.SetIndex, len(s.Exercises[0].Sets)-1)
			set := s.Exercises[0].Sets[setIndex]
			if set.Completed != tt.wantCompleted {
				t.Errorf("Expected completed %v, got %v", tt.wantCompleted, set.Completed)
			}
			if diff := cmp.Diff(tt.wantWeight, set.ActualWeightKg); diff != "" {
				t.Errorf("Weight mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_SkipSet(t *testing.T) {
	s := applyAll(started(workout.PlanExercise{Name: "Lunge", Sets: ptr.Ref(2)}),
		workout.SkipWarmup{},
		workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 10},
		workout.SetPhase{Phase: workout.PhaseExercise},
		workout.SkipSet{ExerciseIndex: 0, SetIndex: 1})

	set := s.Exercises[0].Sets[1]
	if !set.Skipped || set.Completed {
		t.Errorf("Expected skipped set, got completed=%v skipped=%v", set.Completed, set.Skipped)
	}
	if s.CurrentSetIndex != 0 {
		t.Errorf("Expected set cursor to wrap to 0, got %d", s.CurrentSetIndex)
	}
	if s.Phase != workout.PhaseExercise {
		t.Errorf("Expected phase to stay %q, got %q", workout.PhaseExercise, s.Phase)
	}
}

func TestApply_Navigation(t *testing.T) {
	three := started(
		workout.PlanExercise{Name: "Squat"},
		workout.PlanExercise{Name: "Bench Press"},
		workout.PlanExercise{Name: "Row"},
	)
	tests := []struct {
		name          string
		events        []workout.Event
		wantExercise  int
		wantPhase     workout.Phase
		wantSkipped   []bool
		wantExercises int
	}{
		{
			name:         "next exercise",
			events:       []workout.Event{workout.SkipWarmup{}, workout.NextExercise{}},
			wantExercise: 1,
			wantPhase:    workout.PhaseExercise,
		},
		{
			name:         "next from the last exercise lands in summary",
			events:       []workout.Event{workout.GoToExercise{Index: 2}, workout.NextExercise{}},
			wantExercise: 2,
			wantPhase:    workout.PhaseSummary,
		},
		{
			name:         "previous is floored at zero",
			events:       []workout.Event{workout.SkipWarmup{}, workout.PrevExercise{}, workout.PrevExercise{}},
			wantExercise: 0,
			wantPhase:    workout.PhaseExercise,
		},
		{
			name:         "go to out of range is a no-op",
			events:       []workout.Event{workout.GoToExercise{Index: 3}},
			wantExercise: 0,
			wantPhase:    workout.PhaseWarmup,
		},
		{
			name:         "skip exercise advances",
			events:       []workout.Event{workout.SkipWarmup{}, workout.SkipExercise{Index: 0}},
			wantExercise: 1,
			wantPhase:    workout.PhaseExercise,
			wantSkipped:  []bool{true, false, false},
		},
		{
			name:         "skip the last exercise lands in summary",
			events:       []workout.Event{workout.GoToExercise{Index: 2}, workout.SkipExercise{Index: 2}},
			wantExercise: 2,
			wantPhase:    workout.PhaseSummary,
			wantSkipped:  []bool{false, false, true},
		},
		{
			name:          "remove before the cursor keeps pointing at the same exercise",
			events:        []workout.Event{workout.GoToExercise{Index: 2}, workout.RemoveExercise{Index: 0}},
			wantExercise:  1,
			wantPhase:     workout.PhaseExercise,
			wantExercises: 2,
		},
		{
			name:          "remove the last exercise under the cursor clamps",
			events:        []workout.Event{workout.GoToExercise{Index: 2}, workout.RemoveExercise{Index: 2}},
			wantExercise:  1,
			wantPhase:     workout.PhaseExercise,
			wantExercises: 2,
		},
		{
			name: "set phase leaves rest without moving",
			events: []workout.Event{
				workout.SkipWarmup{},
				workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 10},
				workout.SetPhase{Phase: workout.PhaseExercise},
			},
			wantExercise: 0,
			wantPhase:    workout.PhaseExercise,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := applyAll(three, tt.events...)
			if s.CurrentExerciseIndex != tt.wantExercise {
				t.Errorf("Expected exercise index %d, got %d", tt.wantExercise, s.CurrentExerciseIndex)
			}
			if s.Phase != tt.wantPhase {
				t.Errorf("Expected phase %q, got %q", tt.wantPhase, s.Phase)
			}
			if tt.wantSkipped != nil {
				var skipped []bool
				for _, e := range s.Exercises {
					skipped = append(skipped, e.Skipped)
				}
				if diff := cmp.Diff(tt.wantSkipped, skipped); diff != "" {
					t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
				}
			}
			if tt.wantExercises != 0 && len(s.Exercises) != tt.wantExercises {
				t.Errorf("Expected %d exercises, got %d", tt.wantExercises, len(s.Exercises))
			}
		})
	}
}

func TestApply_Settings(t *testing.T) {
	s := applyAll(started(workout.PlanExercise{Name: "Squat"}),
		workout.ToggleMode{},
		workout.ToggleTimer{},
		workout.SetTimerSeconds{Seconds: 120})
	if s.Mode != workout.ModeOverview || s.TimerEnabled || s.TimerSeconds != 120 {
		t.Errorf("Unexpected settings mode=%q timer=%v seconds=%d", s.Mode, s.TimerEnabled, s.TimerSeconds)
	}
	if s.Phase != workout.PhaseWarmup {
		t.Errorf("Settings changed the phase to %q", s.Phase)
	}

	s = applyAll(s, workout.ToggleMode{}, workout.SetTimerSeconds{Seconds: -5}, workout.SetPhase{Phase: "bogus"})
	if s.Mode != workout.ModeSetBySet || s.TimerSeconds != 0 || s.Phase != workout.PhaseWarmup {
		t.Errorf("Unexpected settings mode=%q seconds=%d phase=%q", s.Mode, s.TimerSeconds, s.Phase)
	}
}

func TestApply_AddExercise(t *testing.T) {
	s := workout.Apply(started(workout.PlanExercise{Name: "Squat"}), workout.AddExercise{
		Exercise: workout.ExerciseResult{
			Name:              "Face Pull",
			PlanExerciseIndex: 0,
			Sets: []workout.SetResult{
				{SetNumber: 1, TargetReps: "15"},
				{SetNumber: 2, TargetReps: "15", Completed: true, Skipped: true, ActualReps: ptr.Ref(15)},
			},
		},
	})
	if len(s.Exercises) != 2 {
		t.Fatalf("Expected 2 exercises, got %d", len(s.Exercises))
	}
	added := s.Exercises[1]
	if !added.IsAddition || added.PlanExerciseIndex != workout.AdditionPlanIndex {
		t.Errorf("Expected addition with plan index %d, got %v %d",
			workout.AdditionPlanIndex, added.IsAddition, added.PlanExerciseIndex)
	}
	for i, set := range added.Sets {
		if set.Completed || set.Skipped || set.ActualReps != nil {
			t.Errorf("Expected added set %d to be unlogged, got %+v", i, set)
		}
	}
}

func TestApply_FinishRestoreClear(t *testing.T) {
	s := applyAll(started(workout.PlanExercise{Name: "Squat", Sets: ptr.Ref(2)}),
		workout.SkipWarmup{},
		workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 5})

	finished := workout.Apply(s, workout.FinishSession{})
	if finished.Phase != workout.PhaseSummary || finished.IsActive {
		t.Errorf("Expected inactive summary, got %q active=%v", finished.Phase, finished.IsActive)
	}

	restored := workout.Apply(workout.InitialState(), workout.RestoreSession{Snapshot: s})
	if diff := cmp.Diff(s, restored); diff != "" {
		t.Errorf("Restore mismatch (-want +got):\n%s", diff)
	}

	cleared := workout.Apply(s, workout.ClearSession{})
	if diff := cmp.Diff(workout.InitialState(), cleared); diff != "" {
		t.Errorf("Clear mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := applyAll(started(workout.PlanExercise{Name: "Squat", Sets: ptr.Ref(2), WeightKg: ptr.Ref(100.0)}),
		workout.SkipWarmup{})
	before := s.Clone()

	for _, e := range []workout.Event{
		workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 5, WeightKg: ptr.Ref(102.5)},
		workout.SkipSet{ExerciseIndex: 0, SetIndex: 1},
		workout.SkipExercise{Index: 0},
		workout.RemoveExercise{Index: 0},
		workout.AddExercise{Exercise: workout.ExerciseResult{Name: "Curl"}},
	} {
		first := workout.Apply(s, e)
		second := workout.Apply(s, e)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s is not deterministic (-first +second):\n%s", e.Type(), diff)
		}
	}
	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("Apply mutated its input (-before +after):\n%s", diff)
	}
}

// TestApply_SetCursorStaysInRange logs and skips sets in random order and checks that the set cursor stays within
// the sets of the current exercise and wraps exactly when every set of the exercise is done.
func TestApply_SetCursorStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test input.
	for round := range 200 {
		setCount := 1 + rng.IntN(6)
		s := applyAll(started(workout.PlanExercise{Name: "Squat", Sets: ptr.Ref(setCount)}), workout.SkipWarmup{})

		for setIndex := range setCount {
			if s.CurrentSetIndex < 0 || s.CurrentSetIndex >= setCount {
				t.Fatalf("round %d: set cursor %d out of range [0, %d)", round, s.CurrentSetIndex, setCount)
			}
			var e workout.Event = workout.LogSet{ExerciseIndex: 0, SetIndex: setIndex, Reps: rng.IntN(15)}
			if rng.IntN(3) == 0 {
				e = workout.SkipSet{ExerciseIndex: 0, SetIndex: setIndex}
			}
			s = workout.Apply(s, e)
			if s.Phase == workout.PhaseRest {
				s = workout.Apply(s, workout.SetPhase{Phase: workout.PhaseExercise})
			}

			last := setIndex == setCount-1
			if last && s.CurrentSetIndex != 0 {
				t.Fatalf("round %d: expected cursor 0 after the last set, got %d", round, s.CurrentSetIndex)
			}
			if !last && s.CurrentSetIndex != setIndex+1 {
				t.Fatalf("round %d: expected cursor %d, got %d", round, setIndex+1, s.CurrentSetIndex)
			}
		}
		for _, set := range s.Exercises[0].Sets {
			if set.Completed == set.Skipped {
				t.Fatalf("round %d: set %d must be exactly one of completed or skipped", round, set.SetNumber)
			}
		}
	}
}

func TestApply_ExerciseCursorEndsInSummary(t *testing.T) {
	for count := 1; count <= 5; count++ {
		plan := make([]workout.PlanExercise, count)
		for i := range plan {
			plan[i] = workout.PlanExercise{Name: "Exercise"}
		}
		for from := range count {
			for _, e := range []workout.Event{workout.NextExercise{}, workout.SkipExercise{Index: from}} {
				s := applyAll(started(plan...), workout.GoToExercise{Index: from},
					workout.LogSet{ExerciseIndex: from, SetIndex: 0, Reps: 1})
				s = workout.Apply(s, e)
				if from == count-1 {
					if s.Phase != workout.PhaseSummary {
						t.Errorf("%s from last of %d: expected summary, got %q", e.Type(), count, s.Phase)
					}
					continue
				}
				if s.Phase != workout.PhaseExercise || s.CurrentSetIndex != 0 || s.CurrentExerciseIndex != from+1 {
					t.Errorf("%s from %d of %d: got phase %q exercise %d set %d",
						e.Type(), from, count, s.Phase, s.CurrentExerciseIndex, s.CurrentSetIndex)
				}
			}
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	plan := []workout.PlanExercise{
		{Name: "Squat", Sets: ptr.Ref(2), Reps: ptr.Ref("5"), WeightKg: ptr.Ref(80.0)},
	}
	s := workout.Apply(workout.InitialState(), workout.StartSession{
		PlanID:    "plan-1",
		PlanDay:   planDay(plan...),
		StartedAt: startedAt,
	})
	s = workout.Apply(s, workout.SkipWarmup{})

	s = workout.Apply(s, workout.LogSet{ExerciseIndex: 0, SetIndex: 0, Reps: 5, WeightKg: ptr.Ref(80.0)})
	if s.Phase != workout.PhaseRest || s.CurrentSetIndex != 1 {
		t.Fatalf("After set 1: expected rest with cursor 1, got %q cursor %d", s.Phase, s.CurrentSetIndex)
	}

	s = workout.Apply(s, workout.SetPhase{Phase: workout.PhaseExercise})
	s = workout.Apply(s, workout.LogSet{ExerciseIndex: 0, SetIndex: 1, Reps: 5, WeightKg: ptr.Ref(85.0)})
	if s.CurrentSetIndex != 0 {
		t.Fatalf("After set 2: expected cursor 0, got %d", s.CurrentSetIndex)
	}

	s = workout.Apply(s, workout.NextExercise{})
	if s.Phase != workout.PhaseSummary {
		t.Fatalf("Expected summary, got %q", s.Phase)
	}

	got := workout.AnalyzeProgression(s, plan)
	want := []workout.WeightUpdate{{PlanIndex: 0, ExerciseName: "Squat", PreviousWeightKg: 80, NewWeightKg: 85}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AnalyzeProgression() mismatch (-want +got):\n%s", diff)
	}
}
