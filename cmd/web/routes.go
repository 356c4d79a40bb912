package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() *http.ServeMux {
	mux := http.NewServeMux()

	var (
		common = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				app.timeout(next)))))
		}
		api = func(next http.HandlerFunc) http.Handler {
			return common(noCache(next))
		}
	)

	mux.Handle("GET /api/healthy", api(app.healthy))
	mux.Handle("GET /api/test/timeout", api(app.testTimeout))

	mux.Handle("GET /api/session", api(app.sessionGET))
	mux.Handle("DELETE /api/session", api(app.sessionDELETE))
	mux.Handle("POST /api/session/start", api(app.sessionStartPOST))
	mux.Handle("POST /api/session/events", api(app.sessionEventsPOST))
	mux.Handle("POST /api/session/finish", api(app.sessionFinishPOST))

	mux.Handle("GET /api/plans", api(app.plansGET))
	mux.Handle("GET /api/plans/{planID}/days/{dayID}/last-workout", api(app.lastWorkoutGET))
	mux.Handle("GET /api/rest-time", api(app.restTimeGET))

	mux.Handle("GET /metrics", common(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{ //nolint:exhaustruct // defaults.
		Registry: app.registry,
	})))

	return mux
}
