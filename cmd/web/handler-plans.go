package main

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/workout"
)

func (app *application) plansGET(w http.ResponseWriter, r *http.Request) {
	plans, err := app.store.ListPlans(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list plans"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, plans)
}

// lastWorkoutGET returns the previous workout of a plan day for the "last time" display.
func (app *application) lastWorkoutGET(w http.ResponseWriter, r *http.Request) {
	app.mu.Lock()
	record, err := app.tracker.LastWorkout(r.Context(), r.PathValue("planID"), r.PathValue("dayID"))
	app.mu.Unlock()
	switch {
	case errors.Is(err, workout.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "no workouts for plan day", nil)
		return
	case err != nil:
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, record)
}

// restTimeGET runs the rest-time advisor for an exercise outside of a session.
func (app *application) restTimeGET(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := workout.RestInput{
		Name:            q.Get("name"),
		ExerciseType:    nil,
		Reps:            nil,
		DurationSeconds: nil,
		Goal:            nil,
	}
	if in.Name == "" {
		app.clientError(w, r, http.StatusBadRequest, "name is required", nil)
		return
	}
	if v := q.Get("exerciseType"); v != "" {
		in.ExerciseType = ptr.Ref(workout.ExerciseType(v))
	}
	if v := q.Get("reps"); v != "" {
		in.Reps = ptr.Ref(v)
	}
	if v := q.Get("goal"); v != "" {
		goal := workout.TrainingGoal(v)
		if !slices.Contains([]workout.TrainingGoal{workout.GoalStrength, workout.GoalHypertrophy,
			workout.GoalEndurance}, goal) {
			app.clientError(w, r, http.StatusBadRequest, "invalid goal", nil)
			return
		}
		in.Goal = &goal
	}
	if v := q.Get("durationSeconds"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 0 {
			app.clientError(w, r, http.StatusBadRequest, "invalid durationSeconds", err)
			return
		}
		in.DurationSeconds = &seconds
	}
	app.writeJSON(w, r, http.StatusOK, newRestResponse(workout.SuggestRestTime(in), language(r)))
}
