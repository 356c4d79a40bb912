package workout

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const defaultWorkoutName = "Workout"

// BuildRecord converts a finished session into the record handed to the store.
func BuildRecord(s State, id string, finishedAt time.Time, caloriesBurned int) WorkoutRecord {
	name := s.PlanDayName
	if name == "" {
		name = defaultWorkoutName
	}
	clone := s.Clone()
	return WorkoutRecord{
		ID:               id,
		Date:             s.StartedAt.Format(time.DateOnly),
		Name:             name,
		DurationMinutes:  durationMinutes(s.StartedAt, finishedAt),
		CaloriesBurned:   caloriesBurned,
		Exercises:        legacyExercises(clone.Exercises),
		PlanID:           s.PlanID,
		PlanDayID:        s.PlanDayID,
		PlanDayNumber:    s.PlanDayNumber,
		SessionExercises: clone.Exercises,
		Warmup:           clone.Warmup,
		StartedAt:        s.StartedAt,
		FinishedAt:       finishedAt,
	}
}

func durationMinutes(startedAt, finishedAt time.Time) int {
	if startedAt.IsZero() || finishedAt.Before(startedAt) {
		return 0
	}
	return int(math.Round(finishedAt.Sub(startedAt).Minutes()))
}

// legacyExercises summarises every exercise as completed set count, the reps of those sets joined with commas,
// and the heaviest weight.
func legacyExercises(exercises []ExerciseResult) []LegacyExercise {
	legacy := make([]LegacyExercise, 0, len(exercises))
	for _, e := range exercises {
		var (
			completed int
			reps      []string
		)
		for _, set := range e.Sets {
			if !set.Completed {
				continue
			}
			completed++
			if set.ActualReps != nil {
				reps = append(reps, strconv.Itoa(*set.ActualReps))
			}
		}
		var weight *float64
		if heaviest, ok := maxCompletedWeight(e.Sets); ok {
			weight = &heaviest
		}
		legacy = append(legacy, LegacyExercise{
			Name:     e.Name,
			Sets:     completed,
			Reps:     strings.Join(reps, ","),
			WeightKg: weight,
		})
	}
	return legacy
}
