package workout

import (
	"cmp"
	"slices"
)

// AnalyzeProgression proposes new target weights for the plan exercises the session outperformed.
//
// Only exercises that belong to the plan, were not skipped and have at least one completed set with a recorded
// weight are considered. An update is proposed when the heaviest completed set exceeds the plan weight, so weights
// only ever go up. Exercises without a plan weight and plan indices out of range are ignored. Updates are ordered
// by plan index with at most one update per index.
func AnalyzeProgression(s State, plan []PlanExercise) []WeightUpdate {
	byIndex := make(map[int]WeightUpdate)
	for _, e := range s.Exercises {
		if e.Skipped || e.IsAddition || e.PlanExerciseIndex < 0 || e.PlanExerciseIndex >= len(plan) {
			continue
		}
		planWeight := plan[e.PlanExerciseIndex].WeightKg
		if planWeight == nil || *planWeight <= 0 {
			continue
		}
		heaviest, ok := maxCompletedWeight(e.Sets)
		if !ok || heaviest <= *planWeight {
			continue
		}
		if prev, seen := byIndex[e.PlanExerciseIndex]; seen && prev.NewWeightKg >= heaviest {
			continue
		}
		byIndex[e.PlanExerciseIndex] = WeightUpdate{
			PlanIndex:        e.PlanExerciseIndex,
			ExerciseName:     plan[e.PlanExerciseIndex].Name,
			PreviousWeightKg: *planWeight,
			NewWeightKg:      heaviest,
		}
	}

	updates := make([]WeightUpdate, 0, len(byIndex))
	for _, u := range byIndex {
		updates = append(updates, u)
	}
	slices.SortFunc(updates, func(a, b WeightUpdate) int { return cmp.Compare(a.PlanIndex, b.PlanIndex) })
	return updates
}

func maxCompletedWeight(sets []SetResult) (float64, bool) {
	var (
		heaviest float64
		found    bool
	)
	for _, set := range sets {
		if !set.Completed || set.Skipped || set.ActualWeightKg == nil {
			continue
		}
		if !found || *set.ActualWeightKg > heaviest {
			heaviest = *set.ActualWeightKg
			found = true
		}
	}
	return heaviest, found
}
