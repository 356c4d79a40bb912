package workout

import "github.com/myrjola/petrasession/internal/ptr"

// Apply returns the state that follows s after e.
//
// Apply is a pure reducer. It never mutates s and the same (s, e) pair always produces the same result.
// Events whose indices are out of range leave the state unchanged.
func Apply(s State, e Event) State {
	next := s.Clone()
	switch ev := e.(type) {
	case StartSession:
		next = startSession(ev)
	case LogWarmup:
		if next.Phase == PhaseWarmup {
			w := ev.Warmup
			next.Warmup = &w
			next.Phase = PhaseExercise
		}
	case SkipWarmup:
		if next.Phase == PhaseWarmup {
			next.Phase = PhaseExercise
		}
	case LogSet:
		next.logSet(ev)
	case SkipSet:
		next.skipSet(ev)
	case NextExercise:
		next.advanceExercise(next.CurrentExerciseIndex)
	case PrevExercise:
		next.CurrentExerciseIndex = max(next.CurrentExerciseIndex-1, 0)
		next.CurrentSetIndex = 0
		next.Phase = PhaseExercise
	case GoToExercise:
		if ev.Index >= 0 && ev.Index < len(next.Exercises) {
			next.CurrentExerciseIndex = ev.Index
			next.CurrentSetIndex = 0
			next.Phase = PhaseExercise
		}
	case SkipExercise:
		if ev.Index >= 0 && ev.Index < len(next.Exercises) {
			next.Exercises[ev.Index].Skipped = true
			next.advanceExercise(ev.Index)
		}
	case RemoveExercise:
		next.removeExercise(ev.Index)
	case AddExercise:
		added := ev.Exercise.clone()
		added.IsAddition = true
		added.PlanExerciseIndex = AdditionPlanIndex
		if added.Sets == nil {
			added.Sets = []SetResult{}
		}
		// Added sets start unlogged.
		for i := range added.Sets {
			added.Sets[i].Completed = false
			added.Sets[i].Skipped = false
			added.Sets[i].ActualReps = nil
		}
		next.Exercises = append(next.Exercises, added)
	case ToggleMode:
		if next.Mode == ModeOverview {
			next.Mode = ModeSetBySet
		} else {
			next.Mode = ModeOverview
		}
	case ToggleTimer:
		next.TimerEnabled = !next.TimerEnabled
	case SetTimerSeconds:
		next.TimerSeconds = max(ev.Seconds, 0)
	case SetPhase:
		if ev.Phase.Valid() {
			next.Phase = ev.Phase
		}
	case FinishSession:
		next.Phase = PhaseSummary
		next.IsActive = false
	case RestoreSession:
		next = ev.Snapshot.Clone()
	case ClearSession:
		next = InitialState()
	}
	return next
}

func startSession(ev StartSession) State {
	s := InitialState()
	s.PlanID = ev.PlanID
	s.PlanDayID = ev.PlanDay.ID
	s.PlanDayNumber = ev.PlanDay.DayNumber
	s.PlanDayName = ev.PlanDay.Name
	s.Exercises = BuildExercises(ev.PlanDay.Exercises)
	s.StartedAt = ev.StartedAt
	s.Phase = PhaseWarmup
	s.IsActive = true
	return s
}

// set returns the addressed set, or nil when the indices are out of range.
func (s *State) set(exerciseIndex, setIndex int) *SetResult {
	if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
		return nil
	}
	sets := s.Exercises[exerciseIndex].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return nil
	}
	return &sets[setIndex]
}

func (s *State) logSet(ev LogSet) {
	set := s.set(ev.ExerciseIndex, ev.SetIndex)
	if set == nil {
		return
	}
	set.Completed = true
	set.Skipped = false
	set.ActualReps = ptr.Ref(ev.Reps)
	if ev.WeightKg != nil {
		set.ActualWeightKg = ptr.Clone(ev.WeightKg)
	} else {
		set.ActualWeightKg = ptr.Clone(set.TargetWeightKg)
	}
	set.Notes = ptr.Clone(ev.Notes)

	moreSets := s.moveSetCursor(ev.ExerciseIndex, ev.SetIndex)
	// Sets corrected from the summary keep the session there.
	if s.TimerEnabled && moreSets && s.Phase != PhaseSummary {
		s.Phase = PhaseRest
	}
}

func (s *State) skipSet(ev SkipSet) {
	set := s.set(ev.ExerciseIndex, ev.SetIndex)
	if set == nil {
		return
	}
	set.Skipped = true
	set.Completed = false
	set.ActualReps = nil
	s.moveSetCursor(ev.ExerciseIndex, ev.SetIndex)
}

// moveSetCursor points the cursor at the set following setIndex, wrapping to 0 after the last set.
// It reports whether a following set exists.
func (s *State) moveSetCursor(exerciseIndex, setIndex int) bool {
	s.CurrentExerciseIndex = exerciseIndex
	if setIndex+1 < len(s.Exercises[exerciseIndex].Sets) {
		s.CurrentSetIndex = setIndex + 1
		return true
	}
	s.CurrentSetIndex = 0
	return false
}

// advanceExercise moves the cursor past from, landing in the summary after the last exercise.
func (s *State) advanceExercise(from int) {
	s.CurrentSetIndex = 0
	if from+1 >= len(s.Exercises) {
		s.Phase = PhaseSummary
		return
	}
	s.CurrentExerciseIndex = from + 1
	s.Phase = PhaseExercise
}

func (s *State) removeExercise(index int) {
	if index < 0 || index >= len(s.Exercises) {
		return
	}
	s.Exercises = append(s.Exercises[:index], s.Exercises[index+1:]...)
	switch {
	case len(s.Exercises) == 0:
		s.CurrentExerciseIndex = 0
		s.CurrentSetIndex = 0
		return
	case index < s.CurrentExerciseIndex:
		s.CurrentExerciseIndex--
	case index == s.CurrentExerciseIndex:
		s.CurrentSetIndex = 0
	}
	s.CurrentExerciseIndex = min(s.CurrentExerciseIndex, len(s.Exercises)-1)
	if sets := len(s.Exercises[s.CurrentExerciseIndex].Sets); s.CurrentSetIndex >= sets {
		s.CurrentSetIndex = 0
	}
}
