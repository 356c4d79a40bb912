package workout

import "github.com/myrjola/petrasession/internal/ptr"

// BuildExercises turns the exercises of a plan day into the working copy of a new session.
//
// Each exercise gets Sets entries (3 when unset or not positive) that target Reps ("10" when unset). The plan
// weight pre-fills both the target and the actual weight so that logging a set without changes records the plan.
func BuildExercises(planExercises []PlanExercise) []ExerciseResult {
	exercises := make([]ExerciseResult, 0, len(planExercises))
	for i, pe := range planExercises {
		setCount := ptr.ValueOr(pe.Sets, defaultSetCount)
		if setCount <= 0 {
			setCount = defaultSetCount
		}
		reps := ptr.ValueOr(pe.Reps, defaultTargetReps)

		sets := make([]SetResult, setCount)
		for n := range sets {
			sets[n] = SetResult{
				SetNumber:      n + 1,
				TargetReps:     reps,
				TargetWeightKg: ptr.Clone(pe.WeightKg),
				ActualReps:     nil,
				ActualWeightKg: ptr.Clone(pe.WeightKg),
				Completed:      false,
				Skipped:        false,
				Notes:          nil,
			}
		}

		exercises = append(exercises, ExerciseResult{
			Name:              pe.Name,
			ExerciseID:        ptr.Clone(pe.ExerciseID),
			ExerciseType:      ptr.Clone(pe.ExerciseType),
			PlanExerciseIndex: i,
			Sets:              sets,
			DurationMinutes:   ptr.Clone(pe.DurationMinutes),
			DistanceKm:        ptr.Clone(pe.DistanceKm),
			Pace:              ptr.Clone(pe.Pace),
			Intensity:         ptr.Clone(pe.Intensity),
			RestSeconds:       ptr.Clone(pe.RestSeconds),
			Skipped:           false,
			IsAddition:        false,
		})
	}
	return exercises
}
