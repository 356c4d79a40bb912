package workout

import (
	"math"
	"strings"

	"github.com/myrjola/petrasession/internal/ptr"
)

const (
	// minMinutesPerExercise is the floor of the time attributed to each exercise.
	minMinutesPerExercise = 3
	defaultWarmupMET      = 4.0
)

//nolint:gochecknoglobals // lookup tables.
var (
	exerciseMET = map[ExerciseType]float64{
		ExerciseTypeStrength:    5.0,
		ExerciseTypeCardio:      7.0,
		ExerciseTypeFlexibility: 3.0,
		ExerciseTypeFunctional:  8.0,
	}

	// Checked in order, the first matching keyword wins.
	warmupMETKeywords = []struct {
		keywords []string
		met      float64
	}{
		{[]string{"jump rope", "skipping", "hyppynaru"}, 10.0},
		{[]string{"running", "jog", "sprint", "juoks", "hölkk"}, 7.0},
		{[]string{"row", "soutu"}, 7.0},
		{[]string{"bike", "cycl", "pyörä"}, 6.0},
		{[]string{"elliptical", "crosstrainer"}, 5.0},
		{[]string{"walk", "kävel"}, 3.5},
		{[]string{"stretch", "mobility", "venyt", "liikkuvuus"}, 2.5},
	}
)

// CalorieInput is everything [EstimateCalories] needs.
type CalorieInput struct {
	Exercises      []ExerciseResult
	Warmup         *WarmupResult
	BodyWeightKg   float64
	ElapsedMinutes float64
}

// ExerciseMET returns the MET value of an exercise type. Unknown types count as strength training.
func ExerciseMET(t *ExerciseType) float64 {
	if t == nil {
		return exerciseMET[ExerciseTypeStrength]
	}
	if met, ok := exerciseMET[*t]; ok {
		return met
	}
	return exerciseMET[ExerciseTypeStrength]
}

// WarmupMET guesses the MET value of a free-text warm-up description.
func WarmupMET(description string) float64 {
	d := strings.ToLower(description)
	for _, k := range warmupMETKeywords {
		for _, keyword := range k.keywords {
			if strings.Contains(d, keyword) {
				return k.met
			}
		}
	}
	return defaultWarmupMET
}

// kcal converts a MET value held for minutes by a person of bodyWeightKg into kilocalories.
func kcal(met, bodyWeightKg, minutes float64) float64 {
	return met * max(bodyWeightKg, 0) * max(minutes, 0) / 60 //nolint:mnd // minutes per hour.
}

// EstimateWarmup fills in the MET value and the calories of a warm-up from its description.
func EstimateWarmup(description string, durationMinutes, bodyWeightKg float64) WarmupResult {
	met := WarmupMET(description)
	return WarmupResult{
		Description:     description,
		DurationMinutes: durationMinutes,
		CaloriesBurned:  int(math.Round(kcal(met, bodyWeightKg, durationMinutes))),
		METValue:        met,
	}
}

// EstimateCalories estimates the kilocalories burned during a session.
//
// Exercises without their own duration share the session time left after the warm-up evenly, with at least
// three minutes each. Skipped exercises contribute nothing. The result is rounded and never negative.
func EstimateCalories(in CalorieInput) int {
	total := warmupCalories(in.Warmup, in.BodyWeightKg)

	active := 0
	for _, e := range in.Exercises {
		if !e.Skipped {
			active++
		}
	}
	if active > 0 {
		warmupMinutes := 0.0
		if in.Warmup != nil {
			warmupMinutes = in.Warmup.DurationMinutes
		}
		remaining := max(in.ElapsedMinutes-warmupMinutes, float64(active*minMinutesPerExercise))
		average := remaining / float64(active)
		for _, e := range in.Exercises {
			if e.Skipped {
				continue
			}
			total += kcal(ExerciseMET(e.ExerciseType), in.BodyWeightKg, ptr.ValueOr(e.DurationMinutes, average))
		}
	}

	return max(int(math.Round(total)), 0)
}

func warmupCalories(w *WarmupResult, bodyWeightKg float64) float64 {
	switch {
	case w == nil:
		return 0
	case w.CaloriesBurned > 0:
		return float64(w.CaloriesBurned)
	case w.METValue > 0:
		return kcal(w.METValue, bodyWeightKg, w.DurationMinutes)
	default:
		return kcal(WarmupMET(w.Description), bodyWeightKg, w.DurationMinutes)
	}
}
