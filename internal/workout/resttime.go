package workout

import (
	"math"
	"strconv"
	"strings"

	"github.com/myrjola/petrasession/internal/i18n"
	"github.com/myrjola/petrasession/internal/ptr"
)

// RestCategory groups exercises by how much recovery they need between sets.
type RestCategory string

const (
	RestCategoryCompound    RestCategory = "compound"
	RestCategoryIsolation   RestCategory = "isolation"
	RestCategoryCardio      RestCategory = "cardio"
	RestCategoryFlexibility RestCategory = "flexibility"
	RestCategoryIsometric   RestCategory = "isometric"
)

// TrainingGoal is derived from the rep range unless given explicitly.
type TrainingGoal string

const (
	GoalStrength    TrainingGoal = "strength"
	GoalHypertrophy TrainingGoal = "hypertrophy"
	GoalEndurance   TrainingGoal = "endurance"
)

const (
	strengthMaxReps   = 5
	enduranceMinReps  = 13
	compoundBonus     = 30
	minIsometricRest  = 30
	flexibilityRest   = 15
	cardioRest        = 60
	cardioWarmupMin   = 10
	compoundWarmupMin = 8
	defaultWarmupMin  = 5
)

//nolint:gochecknoglobals // lookup tables.
var (
	goalRestSeconds = map[TrainingGoal]int{
		GoalStrength:    180,
		GoalHypertrophy: 90,
		GoalEndurance:   45,
	}

	// Checked in order, the first category with a matching pattern wins.
	categoryPatterns = []struct {
		category RestCategory
		patterns []string
	}{
		{RestCategoryFlexibility, []string{"stretch", "yoga", "mobility", "foam roll", "venyttely", "liikkuvuus"}},
		{RestCategoryCardio, []string{"running", "jog", "cycling", "bike", "rowing", "elliptical", "jump rope",
			"treadmill", "swim", "walk", "juoksu", "pyöräily", "soutu", "kävely"}},
		{RestCategoryIsometric, []string{"plank", "hold", "wall sit", "hollow", "l-sit", "dead hang", "isometric",
			"lankku"}},
		{RestCategoryCompound, []string{"squat", "deadlift", "bench", "press", "row", "pull-up", "pullup",
			"chin-up", "chinup", "dip", "lunge", "clean", "snatch", "thrust", "push-up", "pushup",
			"kyykky", "maastaveto", "penkki", "punnerrus", "leuanveto"}},
	}
)

// RestInput describes an exercise for [SuggestRestTime].
type RestInput struct {
	Name         string
	ExerciseType *ExerciseType
	// Reps is the target rep count or range such as "8" or "8-10".
	Reps *string
	// DurationSeconds is the hold duration of timed exercises.
	DurationSeconds *int
	// Goal overrides the goal derived from Reps.
	Goal *TrainingGoal
}

// RestAdvice is the outcome of [SuggestRestTime].
type RestAdvice struct {
	RestSeconds   int          `json:"restSeconds"`
	WarmupMinutes int          `json:"warmupMinutes"`
	HoldSeconds   int          `json:"holdSeconds,omitempty"`
	Category      RestCategory `json:"category"`
	Goal          TrainingGoal `json:"goal"`
}

// SuggestRestTime classifies the exercise and suggests the rest between sets and the warm-up before it.
func SuggestRestTime(in RestInput) RestAdvice {
	category := classify(in)
	goal := ptr.ValueOr(in.Goal, goalFromReps(ptr.ValueOr(in.Reps, "")))
	advice := RestAdvice{
		RestSeconds:   0,
		WarmupMinutes: warmupMinutes(category),
		HoldSeconds:   0,
		Category:      category,
		Goal:          goal,
	}

	switch category {
	case RestCategoryIsometric:
		advice.HoldSeconds = ptr.ValueOr(in.DurationSeconds, minIsometricRest)
		advice.RestSeconds = max(advice.HoldSeconds, minIsometricRest)
	case RestCategoryFlexibility:
		advice.RestSeconds = flexibilityRest
	case RestCategoryCardio:
		advice.RestSeconds = cardioRest
	case RestCategoryCompound:
		advice.RestSeconds = goalRestSeconds[goal] + compoundBonus
	case RestCategoryIsolation:
		advice.RestSeconds = goalRestSeconds[goal]
	}
	return advice
}

func classify(in RestInput) RestCategory {
	if in.ExerciseType != nil {
		switch *in.ExerciseType {
		case ExerciseTypeCardio:
			return RestCategoryCardio
		case ExerciseTypeFlexibility:
			return RestCategoryFlexibility
		case ExerciseTypeStrength, ExerciseTypeFunctional:
		}
	}
	name := strings.ToLower(in.Name)
	for _, cp := range categoryPatterns {
		for _, p := range cp.patterns {
			if strings.Contains(name, p) {
				return cp.category
			}
		}
	}
	// An unrecognised timed exercise is a hold.
	if in.DurationSeconds != nil && *in.DurationSeconds > 0 {
		return RestCategoryIsometric
	}
	return RestCategoryIsolation
}

// goalFromReps uses the average of a range like "8-12". Unparseable reps default to hypertrophy.
func goalFromReps(reps string) TrainingGoal {
	var (
		sum   float64
		count int
	)
	for part := range strings.SplitSeq(reps, "-") {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || n <= 0 {
			return GoalHypertrophy
		}
		sum += n
		count++
	}
	avg := sum / float64(count)
	switch {
	case avg <= strengthMaxReps:
		return GoalStrength
	case avg >= enduranceMinReps:
		return GoalEndurance
	default:
		return GoalHypertrophy
	}
}

func warmupMinutes(c RestCategory) int {
	switch c {
	case RestCategoryCardio:
		return cardioWarmupMin
	case RestCategoryCompound:
		return compoundWarmupMin
	case RestCategoryFlexibility:
		return 0
	case RestCategoryIsolation, RestCategoryIsometric:
	}
	return defaultWarmupMin
}

// Rationale explains the advice in lang.
func (a RestAdvice) Rationale(lang i18n.Language) string {
	category := i18n.Translate(lang, "rest.category."+string(a.Category))
	switch a.Category {
	case RestCategoryIsometric:
		return i18n.Translatef(lang, "rest.reason.isometric", category, a.HoldSeconds, minIsometricRest)
	case RestCategoryFlexibility:
		return i18n.Translatef(lang, "rest.reason.flexibility", category, a.RestSeconds)
	case RestCategoryCardio:
		return i18n.Translatef(lang, "rest.reason.cardio", category, a.RestSeconds, a.WarmupMinutes)
	case RestCategoryCompound, RestCategoryIsolation:
	}

	goal := i18n.Translate(lang, "rest.goal."+string(a.Goal))
	if a.Goal == GoalStrength {
		goal = i18n.Translatef(lang, "rest.goal.strength", strengthMaxReps)
	}
	reason := i18n.Translatef(lang, "rest.reason."+string(a.Goal), category, goal, a.RestSeconds)
	if a.Category == RestCategoryCompound {
		reason += " " + i18n.Translatef(lang, "rest.reason.compound", compoundBonus)
	}
	return reason
}

// RestSecondsFor returns the rest before the next set of exercise i: the exercise override if any, otherwise the
// advisor's suggestion. Out-of-range indices fall back to the timer setting.
func (s State) RestSecondsFor(i int) int {
	if i < 0 || i >= len(s.Exercises) {
		return s.TimerSeconds
	}
	e := s.Exercises[i]
	if e.RestSeconds != nil {
		return *e.RestSeconds
	}
	return SuggestRestTime(e.restInput()).RestSeconds
}

// CurrentRestAdvice returns the advice for the exercise under the cursor. There is none in the summary.
func (s State) CurrentRestAdvice() (RestAdvice, bool) {
	e, ok := s.CurrentExercise()
	if !ok || s.Phase == PhaseSummary {
		return RestAdvice{}, false
	}
	return SuggestRestTime(e.restInput()), true
}

func (e ExerciseResult) restInput() RestInput {
	var (
		reps     *string
		duration *int
	)
	if len(e.Sets) > 0 {
		reps = ptr.Ref(e.Sets[0].TargetReps)
	}
	if e.DurationMinutes != nil && *e.DurationMinutes > 0 {
		duration = ptr.Ref(int(math.Round(*e.DurationMinutes * 60))) //nolint:mnd // seconds per minute.
	}
	return RestInput{
		Name:            e.Name,
		ExerciseType:    e.ExerciseType,
		Reps:            reps,
		DurationSeconds: duration,
		Goal:            nil,
	}
}
