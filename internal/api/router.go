package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/mdexport/internal/noteservice"
	"github.com/starford/mdexport/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, receives export progress and is mounted at
// GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/preview/*", h.Preview)
	r.Post("/export", h.Export)
	r.Get("/resolve", h.Resolve)

	// SSE endpoint (protected by same auth middleware).
	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
