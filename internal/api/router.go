package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultsite/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/build", h.Build)

	r.Get("/entries", h.ListEntries)
	r.Get("/entries/*", h.GetEntry)

	r.Get("/resolve", h.Resolve)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/dangling", h.Dangling)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewRawRouter serves the raw Markdown passthrough routes. Mount it at
// {base}/raw.
func NewRawRouter(svc *noteservice.Service) chi.Router {
	r := chi.NewRouter()
	raw := RawHandler(svc)
	r.Get("/*", raw)
	r.Head("/*", raw)
	return r
}
