package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/i18n"
	"github.com/myrjola/petrasession/internal/workout"
)

type restResponse struct {
	workout.RestAdvice
	Rationale string `json:"rationale"`
}

func newRestResponse(advice workout.RestAdvice, lang i18n.Language) restResponse {
	return restResponse{RestAdvice: advice, Rationale: advice.Rationale(lang)}
}

type sessionResponse struct {
	State workout.State `json:"state"`
	// Rest is the advice for the exercise under the cursor.
	Rest *restResponse `json:"rest,omitempty"`
	// RestSeconds is the rest before the next set of the exercise under the cursor.
	RestSeconds int `json:"restSeconds"`
	// LastWorkout is the previous workout of the same plan day, returned when a session starts.
	LastWorkout *workout.WorkoutRecord `json:"lastWorkout,omitempty"`
}

func newSessionResponse(s workout.State, lang i18n.Language) sessionResponse {
	resp := sessionResponse{
		State:       s,
		Rest:        nil,
		RestSeconds: s.RestSecondsFor(s.CurrentExerciseIndex),
		LastWorkout: nil,
	}
	if advice, ok := s.CurrentRestAdvice(); ok {
		rest := newRestResponse(advice, lang)
		resp.Rest = &rest
	}
	return resp
}

func (app *application) sessionGET(w http.ResponseWriter, r *http.Request) {
	app.mu.Lock()
	s := app.tracker.State()
	app.mu.Unlock()
	app.writeJSON(w, r, http.StatusOK, newSessionResponse(s, language(r)))
}

type startRequest struct {
	PlanID    string `json:"planId"`
	PlanDayID string `json:"planDayId"`
}

func (app *application) sessionStartPOST(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.PlanID == "" || req.PlanDayID == "" {
		app.clientError(w, r, http.StatusBadRequest, "planId and planDayId are required", nil)
		return
	}

	app.mu.Lock()
	s, last, err := app.tracker.Start(r.Context(), req.PlanID, req.PlanDayID)
	app.mu.Unlock()
	switch {
	case errors.Is(err, workout.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "plan day not found", err)
		return
	case err != nil:
		app.serverError(w, r, errors.Wrap(err, "start session"))
		return
	}

	resp := newSessionResponse(s, language(r))
	resp.LastWorkout = last
	app.writeJSON(w, r, http.StatusCreated, resp)
}

// sessionEventsPOST applies an event envelope such as {"type":"LOG_SET","exerciseIndex":0,...} to the session.
//
// Starting, restoring and finishing have their own endpoints because they involve the store.
func (app *application) sessionEventsPOST(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		app.clientError(w, r, http.StatusRequestEntityTooLarge, "request body too large", err)
		return
	}
	e, err := workout.DecodeEvent(data)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid event", err)
		return
	}
	switch e.(type) {
	case workout.StartSession, workout.RestoreSession, workout.FinishSession:
		app.clientError(w, r, http.StatusBadRequest, "event not allowed here: "+string(e.Type()), nil)
		return
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if ev, ok := e.(workout.LogWarmup); ok {
		e = app.estimateWarmup(r.Context(), ev)
	}
	if _, isClear := e.(workout.ClearSession); !isClear && !app.tracker.State().IsActive {
		app.clientError(w, r, http.StatusConflict, workout.ErrNoActiveSession.Error(), nil)
		return
	}
	s, err := app.tracker.Dispatch(r.Context(), e)
	if err != nil {
		app.metrics.CounterSnapshotFailures.Inc()
		app.serverError(w, r, errors.Wrap(err, "dispatch event"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, newSessionResponse(s, language(r)))
}

// estimateWarmup fills in the calories and MET of a warm-up logged without them.
func (app *application) estimateWarmup(ctx context.Context, e workout.LogWarmup) workout.LogWarmup {
	if e.Warmup.CaloriesBurned > 0 || e.Warmup.METValue > 0 {
		return e
	}
	e.Warmup = workout.EstimateWarmup(e.Warmup.Description, e.Warmup.DurationMinutes,
		app.tracker.BodyWeightKg(ctx))
	return e
}

func (app *application) sessionFinishPOST(w http.ResponseWriter, r *http.Request) {
	app.mu.Lock()
	result, err := app.tracker.Finish(r.Context())
	app.mu.Unlock()
	switch {
	case errors.Is(err, workout.ErrNoActiveSession):
		app.clientError(w, r, http.StatusConflict, workout.ErrNoActiveSession.Error(), nil)
		return
	case err != nil:
		// The session stays finished with its checkpoint so the client can retry.
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to finish session", errors.SlogError(err))
		app.writeError(w, r, http.StatusBadGateway, "workout could not be saved, retry finishing")
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}

func (app *application) sessionDELETE(w http.ResponseWriter, r *http.Request) {
	app.mu.Lock()
	err := app.tracker.Discard(r.Context())
	app.mu.Unlock()
	if err != nil {
		app.metrics.CounterSnapshotFailures.Inc()
		app.serverError(w, r, errors.Wrap(err, "discard session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
