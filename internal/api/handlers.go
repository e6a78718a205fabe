package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/checksum"
	"github.com/starford/vaultsite/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// entryID extracts the entry identifier from the wildcard URL segment.
// Supports encoded slashes (e.g. research%2Fissue-17506) and a trailing
// slash copied from a page href.
func entryID(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return strings.Trim(decoded, "/")
}

// Build handles GET /build.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Build(r.Context())
	if err != nil {
		writeError(w, "build info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListEntries handles GET /entries?type=.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	noteType := r.URL.Query().Get("type")
	entries, err := h.svc.ListEntries(r.Context(), noteType)
	if err != nil {
		writeError(w, "list entries", err, slog.String("type", noteType))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

// GetEntry handles GET /entries/*. The response carries an ETag of the
// entry body and honours If-None-Match.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	entry, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, "get entry", err, slog.String("id", id))
		return
	}
	w.Header().Set("ETag", entry.ETag)
	if r.Header.Get("If-None-Match") == entry.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Resolve handles GET /resolve?link=. A dangling link is a 200 with no
// href.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("link")
	if link == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'link' is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), link)
	if err != nil {
		writeError(w, "resolve", err, slog.String("link", link))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"href":     res.Href,
		"id":       res.ID,
		"label":    res.Label,
		"dangling": res.Dangling(),
	})
}

// Backlinks handles GET /backlinks/*.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), id)
	if err != nil {
		writeError(w, "backlinks", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": links})
}

// Dangling handles GET /dangling.
func (h *Handler) Dangling(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Dangling(r.Context())
	if err != nil {
		writeError(w, "dangling", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dangling": links})
}

// RawHandler serves GET and HEAD {base}/raw/<id>.md as text/plain with the body
// unmodified. Entries and project files share the namespace.
func RawHandler(svc *noteservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := strings.CutSuffix(entryID(r), ".md")
		if !ok || id == "" {
			http.NotFound(w, r)
			return
		}
		body, err := svc.Raw(r.Context(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			writeError(w, "raw", err, slog.String("id", id))
			return
		}
		etag := checksum.ETag([]byte(body))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, body)
		}
	}
}
