package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// deps.Events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(deps Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Host messages and canvas document.
	r.Post("/messages", h.PostMessage)
	r.Put("/document", h.PutDocument)
	r.Get("/session", h.GetSession)

	// Saved analyses.
	r.Get("/analyses", h.ListAnalyses)
	r.Get("/analyses/{id}", h.GetAnalysis)
	r.Get("/analyses/{id}/image", h.GetAnalysisImage)
	r.Delete("/analyses/{id}", h.DeleteAnalysis)

	// SSE endpoint (protected by same auth middleware).
	if deps.Events != nil {
		r.Get("/events", deps.Events.ServeHTTP)
	}

	return r
}

// HealthRouter serves the unauthenticated liveness and readiness probes.
// ready may be nil, in which case readiness always succeeds.
func HealthRouter(ready func() error) chi.Router {
	r := chi.NewRouter()
	r.Get("/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusBody("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
				return
			}
		}
		writeJSON(w, http.StatusOK, statusBody("ok"))
	})
	return r
}
