package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *contentservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Compiled modules.
	r.Get("/modules", h.ListModules)
	r.Get("/modules/{slug}", h.GetModule)

	// Diagnostics of the latest compile.
	r.Get("/diagnostics", h.Diagnostics)

	// Search over flattened content.
	r.Get("/search", h.Search)

	// Forced recompile.
	r.Post("/recompile", h.Recompile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
