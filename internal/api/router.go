package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/onebridge/internal/notebookservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *notebookservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Backup catalog (read-only).
	r.Get("/notebooks", h.ListNotebooks)
	r.Get("/notebooks/{notebook}/sections", h.ListSections)
	r.Get("/notebooks/{notebook}/sections/{section}", h.ReadSection)
	r.Get("/notebooks/{notebook}/sections/{section}/titles", h.PageTitles)
	r.Get("/notebooks/{notebook}/summary", h.Summary)
	r.Get("/search", h.Search)

	// Running application.
	r.Route("/live", func(r chi.Router) {
		r.Get("/notebooks", h.LiveNotebooks)
		r.Get("/pages", h.LivePages)
		r.Post("/pages", h.CreatePage)
		r.Post("/pages/{id}/append", h.AppendToPage)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
