package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdexport/internal/apperr"
	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/noteservice"
	"github.com/starford/mdexport/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil.
func NewHandler(svc *noteservice.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed vault files
//	@Tags			notes
//	@Produce		json
//	@Param			prefix		query		string	false	"Folder prefix"
//	@Param			notes_only	query		bool	false	"Only Markdown notes"
//	@Success		200			{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notesOnly, _ := strconv.ParseBool(q.Get("notes_only"))

	items, err := h.svc.List(r.Context(), q.Get("prefix"), notesOnly)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []FileItem{}
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: items, Total: len(items)})
}

// Preview handles GET /api/preview/*.
//
//	@Summary		Rewrite a note without exporting it
//	@Tags			export
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	Preview
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview/{path} [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	p, err := h.svc.Preview(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("preview failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Export handles POST /api/export.
//
//	@Summary		Export a note, a folder or the whole vault
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	false	"What to export"
//	@Success		200		{object}	ExportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := h.svc.Export(r.Context(), noteservice.ExportRequest{Root: req.Root, Override: req.Override}, h.notify())
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case report != nil:
			// Run cut short by the client going away.
			slog.Warn("export interrupted", slog.String("root", req.Root), slog.String("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, "export interrupted")
		default:
			slog.Error("export failed", slog.String("root", req.Root), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	resp := newExportResponse(report)
	if h.broker != nil {
		h.broker.PublishFinished(report.ID, map[string]any{
			"run_id":   report.ID,
			"exported": len(resp.Exported),
			"failed":   len(resp.Failed),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Resolve a link as written in a note
//	@Tags			export
//	@Produce		json
//	@Param			link	query		string	true	"Link text"
//	@Param			from	query		string	false	"Note containing the link"
//	@Success		200		{object}	Resolution
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	link := q.Get("link")
	if link == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'link' is required")
		return
	}
	res, err := h.svc.Resolve(r.Context(), link, q.Get("from"))
	if err != nil {
		slog.Error("resolve failed", slog.String("link", link), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// notify forwards exporter events to the SSE broker, if any.
func (h *Handler) notify() exporter.Notify {
	return BrokerNotify(h.broker)
}

// BrokerNotify adapts an SSE broker to an exporter.Notify. A nil broker
// yields a nil Notify.
func BrokerNotify(b *sse.Broker) exporter.Notify {
	if b == nil {
		return nil
	}
	return func(ev exporter.Event) {
		b.PublishDocumentEvent(sse.DocumentEvent{
			RunID:  ev.RunID,
			Kind:   ev.Kind,
			Path:   ev.Path,
			Output: ev.Output,
			Error:  ev.Error,
		})
	}
}
