package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/contentservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListModules handles GET /api/modules.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListModules(r.Context())
	if err != nil {
		slog.Error("list modules failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"modules": items,
		"total":   len(items),
	})
}

// GetModule handles GET /api/modules/{slug}. The response body is the
// flattened module exactly as the compiler produced it.
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	mod, err := h.svc.GetModule(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get module failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, mod)
}

// Diagnostics handles GET /api/diagnostics with an optional ?category=
// filter (production or wip), mirroring how CI consumes the compiler.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && category != "production" && category != "wip" {
		writeJSON(w, http.StatusBadRequest, errorBody("category must be production or wip"))
		return
	}
	diags, err := h.svc.Diagnostics(r.Context(), category)
	if err != nil {
		slog.Error("diagnostics failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"diagnostics": diags,
		"total":       len(diags),
	})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Recompile handles POST /api/recompile: a forced full compile, for
// editors that want fresh diagnostics without touching a file.
func (h *Handler) Recompile(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Recompile(r.Context())
	if err != nil {
		slog.Error("recompile failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"modules":     len(res.Modules),
		"diagnostics": len(res.Errors),
	})
}
