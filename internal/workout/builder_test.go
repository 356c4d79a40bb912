package workout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/workout"
)

func TestBuildExercises(t *testing.T) {
	tests := []struct {
		name string
		plan []workout.PlanExercise
		want []workout.ExerciseResult
	}{
		{
			name: "empty plan",
			plan: nil,
			want: []workout.ExerciseResult{},
		},
		{
			name: "defaults to three sets of ten",
			plan: []workout.PlanExercise{{Name: "Push-up"}},
			want: []workout.ExerciseResult{{
				Name:              "Push-up",
				PlanExerciseIndex: 0,
				Sets: []workout.SetResult{
					{SetNumber: 1, TargetReps: "10"},
					{SetNumber: 2, TargetReps: "10"},
					{SetNumber: 3, TargetReps: "10"},
				},
			}},
		},
		{
			name: "prefills target and actual weight",
			plan: []workout.PlanExercise{
				{Name: "Plank", Sets: ptr.Ref(1), Reps: ptr.Ref("1")},
				{Name: "Squat", Sets: ptr.Ref(2), Reps: ptr.Ref("8-10"), WeightKg: ptr.Ref(80.0),
					RestSeconds: ptr.Ref(150)},
			},
			want: []workout.ExerciseResult{
				{
					Name:              "Plank",
					PlanExerciseIndex: 0,
					Sets:              []workout.SetResult{{SetNumber: 1, TargetReps: "1"}},
				},
				{
					Name:              "Squat",
					PlanExerciseIndex: 1,
					RestSeconds:       ptr.Ref(150),
					Sets: []workout.SetResult{
						{SetNumber: 1, TargetReps: "8-10", TargetWeightKg: ptr.Ref(80.0), ActualWeightKg: ptr.Ref(80.0)},
						{SetNumber: 2, TargetReps: "8-10", TargetWeightKg: ptr.Ref(80.0), ActualWeightKg: ptr.Ref(80.0)},
					},
				},
			},
		},
		{
			name: "non-positive set count falls back to three",
			plan: []workout.PlanExercise{{Name: "Row", Sets: ptr.Ref(0), Reps: ptr.Ref("12")}},
			want: []workout.ExerciseResult{{
				Name:              "Row",
				PlanExerciseIndex: 0,
				Sets: []workout.SetResult{
					{SetNumber: 1, TargetReps: "12"},
					{SetNumber: 2, TargetReps: "12"},
					{SetNumber: 3, TargetReps: "12"},
				},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workout.BuildExercises(tt.plan)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildExercises() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildExercises_doesNotShareWeights(t *testing.T) {
	plan := []workout.PlanExercise{{Name: "Bench Press", Sets: ptr.Ref(2), WeightKg: ptr.Ref(60.0)}}
	exercises := workout.BuildExercises(plan)

	*exercises[0].Sets[0].ActualWeightKg = 65
	if *plan[0].WeightKg != 60 {
		t.Errorf("Plan weight changed to %v", *plan[0].WeightKg)
	}
	if *exercises[0].Sets[0].TargetWeightKg != 60 {
		t.Errorf("Target weight changed to %v", *exercises[0].Sets[0].TargetWeightKg)
	}
	if *exercises[0].Sets[1].ActualWeightKg != 60 {
		t.Errorf("Second set weight changed to %v", *exercises[0].Sets[1].ActualWeightKg)
	}
}
