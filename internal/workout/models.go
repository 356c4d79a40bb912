package workout

import (
	"time"

	"github.com/myrjola/petrasession/internal/ptr"
)

// Phase is the discrete stage of a live session.
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseExercise Phase = "exercise"
	PhaseRest     Phase = "rest"
	PhaseSummary  Phase = "summary"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseWarmup, PhaseExercise, PhaseRest, PhaseSummary:
		return true
	}
	return false
}

// Mode is the display strategy of the session. It does not affect logging.
type Mode string

const (
	ModeSetBySet Mode = "set-by-set"
	ModeOverview Mode = "overview"
)

// ExerciseType classifies exercises for MET lookups and rest advice.
type ExerciseType string

const (
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeFlexibility ExerciseType = "flexibility"
	ExerciseTypeFunctional  ExerciseType = "functional"
)

// AdditionPlanIndex marks exercises added during the session that have no plan counterpart.
const AdditionPlanIndex = -1

const (
	defaultSetCount     = 3
	defaultTargetReps   = "10"
	defaultTimerSeconds = 90
)

// SetResult is one set of an exercise with its target and the logged outcome.
//
// Completed and Skipped are mutually exclusive. A set starts as neither.
type SetResult struct {
	SetNumber      int      `json:"setNumber"`
	TargetReps     string   `json:"targetReps"`
	TargetWeightKg *float64 `json:"targetWeightKg,omitempty"`
	ActualReps     *int     `json:"actualReps,omitempty"`
	ActualWeightKg *float64 `json:"actualWeightKg,omitempty"`
	Completed      bool     `json:"completed"`
	Skipped        bool     `json:"skipped"`
	Notes          *string  `json:"notes,omitempty"`
}

// Done reports whether the set has been either completed or skipped.
func (s SetResult) Done() bool {
	return s.Completed || s.Skipped
}

// ExerciseResult is the working copy of one exercise in a live session.
type ExerciseResult struct {
	Name              string        `json:"name"`
	ExerciseID        *string       `json:"exerciseId,omitempty"`
	ExerciseType      *ExerciseType `json:"exerciseType,omitempty"`
	PlanExerciseIndex int           `json:"planExerciseIndex"`
	Sets              []SetResult   `json:"sets"`
	DurationMinutes   *float64      `json:"durationMinutes,omitempty"`
	DistanceKm        *float64      `json:"distanceKm,omitempty"`
	Pace              *string       `json:"pace,omitempty"`
	Intensity         *string       `json:"intensity,omitempty"`
	RestSeconds       *int          `json:"restSeconds,omitempty"`
	Skipped           bool          `json:"skipped"`
	IsAddition        bool          `json:"isAddition"`
}

func (e ExerciseResult) clone() ExerciseResult {
	c := e
	c.ExerciseID = ptr.Clone(e.ExerciseID)
	c.ExerciseType = ptr.Clone(e.ExerciseType)
	c.DurationMinutes = ptr.Clone(e.DurationMinutes)
	c.DistanceKm = ptr.Clone(e.DistanceKm)
	c.Pace = ptr.Clone(e.Pace)
	c.Intensity = ptr.Clone(e.Intensity)
	c.RestSeconds = ptr.Clone(e.RestSeconds)
	if e.Sets != nil {
		c.Sets = make([]SetResult, len(e.Sets))
		for i, s := range e.Sets {
			s.TargetWeightKg = ptr.Clone(s.TargetWeightKg)
			s.ActualReps = ptr.Clone(s.ActualReps)
			s.ActualWeightKg = ptr.Clone(s.ActualWeightKg)
			s.Notes = ptr.Clone(s.Notes)
			c.Sets[i] = s
		}
	}
	return c
}

// WarmupResult is logged once per session and never changed afterwards.
type WarmupResult struct {
	Description     string  `json:"description"`
	DurationMinutes float64 `json:"durationMinutes"`
	CaloriesBurned  int     `json:"caloriesBurned"`
	METValue        float64 `json:"metValue"`
}

// State is the single source of truth of an in-progress workout.
//
// It is only changed through [Apply].
type State struct {
	PlanID        string `json:"planId"`
	PlanDayID     string `json:"planDayId"`
	PlanDayNumber int    `json:"planDayNumber"`
	PlanDayName   string `json:"planDayName"`

	Exercises []ExerciseResult `json:"exercises"`
	Warmup    *WarmupResult    `json:"warmup,omitempty"`

	CurrentExerciseIndex int `json:"currentExerciseIndex"`
	CurrentSetIndex      int `json:"currentSetIndex"`

	Mode         Mode `json:"mode"`
	TimerEnabled bool `json:"timerEnabled"`
	TimerSeconds int  `json:"timerSeconds"`

	StartedAt time.Time `json:"startedAt"`
	Phase     Phase     `json:"phase"`
	IsActive  bool      `json:"isActive"`
}

// InitialState returns the empty and inactive state that precedes every session.
func InitialState() State {
	return State{
		PlanID:               "",
		PlanDayID:            "",
		PlanDayNumber:        0,
		PlanDayName:          "",
		Exercises:            []ExerciseResult{},
		Warmup:               nil,
		CurrentExerciseIndex: 0,
		CurrentSetIndex:      0,
		Mode:                 ModeSetBySet,
		TimerEnabled:         true,
		TimerSeconds:         defaultTimerSeconds,
		StartedAt:            time.Time{},
		Phase:                PhaseWarmup,
		IsActive:             false,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Exercises = make([]ExerciseResult, len(s.Exercises))
	for i, e := range s.Exercises {
		c.Exercises[i] = e.clone()
	}
	if s.Warmup != nil {
		w := *s.Warmup
		c.Warmup = &w
	}
	return c
}

// CurrentExercise returns the exercise under the cursor.
func (s State) CurrentExercise() (ExerciseResult, bool) {
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Exercises) {
		return ExerciseResult{}, false
	}
	return s.Exercises[s.CurrentExerciseIndex], true
}

// CompletedSetCount returns the number of completed sets across all exercises.
func (s State) CompletedSetCount() int {
	n := 0
	for _, e := range s.Exercises {
		for _, set := range e.Sets {
			if set.Completed {
				n++
			}
		}
	}
	return n
}

// PlanExercise is one exercise of a training-plan day.
type PlanExercise struct {
	Name            string        `json:"name" yaml:"name"`
	ExerciseID      *string       `json:"exerciseId,omitempty" yaml:"exerciseId,omitempty"`
	ExerciseType    *ExerciseType `json:"exerciseType,omitempty" yaml:"exerciseType,omitempty"`
	Sets            *int          `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps            *string       `json:"reps,omitempty" yaml:"reps,omitempty"`
	WeightKg        *float64      `json:"weightKg,omitempty" yaml:"weightKg,omitempty"`
	DurationMinutes *float64      `json:"durationMinutes,omitempty" yaml:"durationMinutes,omitempty"`
	DistanceKm      *float64      `json:"distanceKm,omitempty" yaml:"distanceKm,omitempty"`
	Pace            *string       `json:"pace,omitempty" yaml:"pace,omitempty"`
	Intensity       *string       `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	RestSeconds     *int          `json:"restSeconds,omitempty" yaml:"restSeconds,omitempty"`
	Notes           *string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// PlanDay is one day of a training plan.
type PlanDay struct {
	ID        string         `json:"id" yaml:"id"`
	PlanID    string         `json:"planId" yaml:"-"`
	DayNumber int            `json:"dayNumber" yaml:"dayNumber"`
	Name      string         `json:"name" yaml:"name"`
	Exercises []PlanExercise `json:"exercises" yaml:"exercises"`
}

// Plan is a training plan made out of days.
type Plan struct {
	ID   string    `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
	Days []PlanDay `json:"days" yaml:"days"`
}

// LegacyExercise is the summarised exercise form kept in workout records for older readers.
type LegacyExercise struct {
	Name     string   `json:"name"`
	Sets     int      `json:"sets"`
	Reps     string   `json:"reps"`
	WeightKg *float64 `json:"weightKg,omitempty"`
}

// WorkoutRecord is the finished session handed to the store.
type WorkoutRecord struct {
	ID               string           `json:"id"`
	Date             string           `json:"date"`
	Name             string           `json:"name"`
	DurationMinutes  int              `json:"durationMinutes"`
	CaloriesBurned   int              `json:"caloriesBurned"`
	Exercises        []LegacyExercise `json:"exercises"`
	PlanID           string           `json:"planId"`
	PlanDayID        string           `json:"planDayId"`
	PlanDayNumber    int              `json:"planDayNumber"`
	SessionExercises []ExerciseResult `json:"sessionExercises"`
	Warmup           *WarmupResult    `json:"warmup,omitempty"`
	StartedAt        time.Time        `json:"startedAt"`
	FinishedAt       time.Time        `json:"finishedAt"`
}

// WeightUpdate proposes a new target weight for one plan exercise.
type WeightUpdate struct {
	PlanIndex        int     `json:"planIndex"`
	ExerciseName     string  `json:"exerciseName"`
	PreviousWeightKg float64 `json:"previousWeightKg"`
	NewWeightKg      float64 `json:"newWeight"`
}
