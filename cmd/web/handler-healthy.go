package main

import (
	"net/http"
	"strconv"
	"time"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// testTimeout is a handler for testing timeout functionality.
// It accepts a query parameter sleep_ms to control how long it sleeps.
func (app *application) testTimeout(w http.ResponseWriter, r *http.Request) {
	sleepMs, err := strconv.Atoi(r.URL.Query().Get("sleep_ms"))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid sleep_ms parameter", err)
		return
	}

	if sleepMs > 0 {
		time.Sleep(time.Duration(sleepMs) * time.Millisecond)
	}

	app.writeJSON(w, r, http.StatusOK, map[string]any{"status": "completed", "slept_ms": sleepMs})
}
