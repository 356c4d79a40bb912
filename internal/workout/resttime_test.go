package workout_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/petrasession/internal/i18n"
	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/workout"
)

func TestSuggestRestTime(t *testing.T) {
	tests := []struct {
		name  string
		input workout.RestInput
		want  workout.RestAdvice
	}{
		{
			name:  "compound hypertrophy",
			input: workout.RestInput{Name: "Back Squat", Reps: ptr.Ref("8")},
			want: workout.RestAdvice{
				RestSeconds: 120, WarmupMinutes: 8, Category: workout.RestCategoryCompound, Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "compound strength",
			input: workout.RestInput{Name: "Deadlift", Reps: ptr.Ref("3-5")},
			want: workout.RestAdvice{
				RestSeconds: 210, WarmupMinutes: 8, Category: workout.RestCategoryCompound, Goal: workout.GoalStrength,
			},
		},
		{
			name:  "isolation hypertrophy",
			input: workout.RestInput{Name: "Bicep Curl", Reps: ptr.Ref("12")},
			want: workout.RestAdvice{
				RestSeconds: 90, WarmupMinutes: 5, Category: workout.RestCategoryIsolation, Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "isolation endurance",
			input: workout.RestInput{Name: "Lateral Raise", Reps: ptr.Ref("15-20")},
			want: workout.RestAdvice{
				RestSeconds: 45, WarmupMinutes: 5, Category: workout.RestCategoryIsolation, Goal: workout.GoalEndurance,
			},
		},
		{
			name:  "explicit goal wins over reps",
			input: workout.RestInput{Name: "Leg Extension", Reps: ptr.Ref("15"), Goal: ptr.Ref(workout.GoalStrength)},
			want: workout.RestAdvice{
				RestSeconds: 180, WarmupMinutes: 5, Category: workout.RestCategoryIsolation, Goal: workout.GoalStrength,
			},
		},
		{
			name:  "plank hold",
			input: workout.RestInput{Name: "Plank", DurationSeconds: ptr.Ref(60)},
			want: workout.RestAdvice{
				RestSeconds: 60, WarmupMinutes: 5, HoldSeconds: 60, Category: workout.RestCategoryIsometric,
				Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "short hold rests at least thirty seconds",
			input: workout.RestInput{Name: "Hollow Body", DurationSeconds: ptr.Ref(20)},
			want: workout.RestAdvice{
				RestSeconds: 30, WarmupMinutes: 5, HoldSeconds: 20, Category: workout.RestCategoryIsometric,
				Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "cardio by type",
			input: workout.RestInput{Name: "Intervals", ExerciseType: ptr.Ref(workout.ExerciseTypeCardio)},
			want: workout.RestAdvice{
				RestSeconds: 60, WarmupMinutes: 10, Category: workout.RestCategoryCardio, Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "rowing is cardio, not a row",
			input: workout.RestInput{Name: "Rowing Machine"},
			want: workout.RestAdvice{
				RestSeconds: 60, WarmupMinutes: 10, Category: workout.RestCategoryCardio, Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "timed run is cardio",
			input: workout.RestInput{Name: "Running", DurationSeconds: ptr.Ref(1200)},
			want: workout.RestAdvice{
				RestSeconds: 60, WarmupMinutes: 10, Category: workout.RestCategoryCardio, Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "timed stretch is flexibility",
			input: workout.RestInput{Name: "Hamstring Stretch", DurationSeconds: ptr.Ref(45)},
			want: workout.RestAdvice{
				RestSeconds: 15, WarmupMinutes: 0, Category: workout.RestCategoryFlexibility,
				Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "unrecognised timed exercise is a hold",
			input: workout.RestInput{Name: "Farmer Carry", DurationSeconds: ptr.Ref(40)},
			want: workout.RestAdvice{
				RestSeconds: 40, WarmupMinutes: 5, HoldSeconds: 40, Category: workout.RestCategoryIsometric,
				Goal: workout.GoalHypertrophy,
			},
		},
		{
			name:  "finnish stretch",
			input: workout.RestInput{Name: "Lonkankoukistajan venyttely"},
			want: workout.RestAdvice{
				RestSeconds: 15, WarmupMinutes: 0, Category: workout.RestCategoryFlexibility, Goal: workout.GoalHypertrophy,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workout.SuggestRestTime(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SuggestRestTime() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestAdvice_Rationale(t *testing.T) {
	squat := workout.SuggestRestTime(workout.RestInput{Name: "Squat", Reps: ptr.Ref("5")})
	got := squat.Rationale(i18n.English)
	for _, want := range []string{"Compound movement", "strength (5 reps or fewer)", "210 s", "extra 30 s"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected rationale %q to contain %q", got, want)
		}
	}

	plank := workout.SuggestRestTime(workout.RestInput{Name: "Lankku", DurationSeconds: ptr.Ref(45)})
	got = plank.Rationale(i18n.Finnish)
	if !strings.Contains(got, "Staattinen pito") || !strings.Contains(got, "45 s") {
		t.Errorf("Unexpected Finnish rationale %q", got)
	}
}

func TestState_RestSecondsFor(t *testing.T) {
	s := started(
		workout.PlanExercise{Name: "Squat", Reps: ptr.Ref("8")},
		workout.PlanExercise{Name: "Bicep Curl", Reps: ptr.Ref("12"), RestSeconds: ptr.Ref(75)},
		workout.PlanExercise{Name: "Plank", DurationMinutes: ptr.Ref(2.0)},
	)
	tests := []struct {
		index int
		want  int
	}{
		{index: 0, want: 120},
		{index: 1, want: 75},
		{index: 2, want: 120},
		{index: 3, want: s.TimerSeconds},
		{index: -1, want: s.TimerSeconds},
	}
	for _, tt := range tests {
		if got := s.RestSecondsFor(tt.index); got != tt.want {
			t.Errorf("RestSecondsFor(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}
}

func TestState_CurrentRestAdvice(t *testing.T) {
	s := started(workout.PlanExercise{Name: "Deadlift", Reps: ptr.Ref("5")})
	advice, ok := s.CurrentRestAdvice()
	if !ok {
		t.Fatal("Expected advice for the current exercise")
	}
	if advice.Category != workout.RestCategoryCompound || advice.Goal != workout.GoalStrength {
		t.Errorf("Unexpected advice %+v", advice)
	}

	s = workout.Apply(s, workout.NextExercise{})
	if _, ok = s.CurrentRestAdvice(); ok {
		t.Error("Expected no advice in the summary")
	}
}
