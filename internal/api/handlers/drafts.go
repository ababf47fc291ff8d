package handlers

import (
	"net/http"
	"strconv"

	"github.com/counseldesk/counsel/pkg/models"
	pkgmw "github.com/counseldesk/counsel/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// ══════════════════════════════════════════════════════════════
// ── Draft Handlers ───────────────────────────────────────────
// ══════════════════════════════════════════════════════════════

// ListDrafts handles GET /api/v1/drafts?status=&limit=.
func (h *Handlers) ListDrafts(w http.ResponseWriter, r *http.Request) {
	filter := models.DraftFilter{
		Status: models.DraftStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}

	drafts, err := h.Drafts.ListDrafts(r.Context(), pkgmw.Owner(r.Context()), filter)
	if err != nil {
		h.respondFailure(w, r, "list-drafts", "Failed to list drafts", err, nil)
		return
	}
	if drafts == nil {
		drafts = []models.Draft{}
	}
	respondJSON(w, http.StatusOK, drafts)
}

// GetDraft handles GET /api/v1/drafts/{draftId}.
func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.Drafts.GetDraft(r.Context(), pkgmw.Owner(r.Context()), chi.URLParam(r, "draftId"))
	if err != nil {
		h.respondFailure(w, r, "get-draft", "Failed to load draft", err, nil)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// ExportDraft handles GET /api/v1/drafts/{draftId}/export.
func (h *Handlers) ExportDraft(w http.ResponseWriter, r *http.Request) {
	html, err := h.Drafts.ExportHTML(r.Context(), pkgmw.Owner(r.Context()), chi.URLParam(r, "draftId"))
	if err != nil {
		h.respondFailure(w, r, "export-draft", "Failed to export draft", err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}
