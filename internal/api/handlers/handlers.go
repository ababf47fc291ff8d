// Package handlers implements the HTTP handlers for the Counsel service.
// Handlers decode requests, call the assistant services, and map their
// typed errors onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/counseldesk/counsel/internal/assistant"
	"github.com/counseldesk/counsel/internal/store"
	pkgmw "github.com/counseldesk/counsel/pkg/middleware"
	chimw "github.com/go-chi/chi/v5/middleware"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Assembler *assistant.Assembler
	Generator *assistant.Generator
	Drafts    *assistant.DraftService
	Extractor *assistant.Extractor

	// Development adds underlying error detail to 500 responses.
	Development bool
}

// New creates a Handlers instance.
func New(asm *assistant.Assembler, gen *assistant.Generator, drafts *assistant.DraftService, ext *assistant.Extractor, development bool) *Handlers {
	return &Handlers{
		Assembler:   asm,
		Generator:   gen,
		Drafts:      drafts,
		Extractor:   ext,
		Development: development,
	}
}

// ── Responses ───────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps an assistant or store error to a response and logs
// server-side failures with the request shape and a stack trace (rendered
// when zerolog.ErrorStackMarshaler is set, see cmd/server).
//
//	*assistant.ValidationError  → 400
//	*store.ErrNotFound          → 404
//	*assistant.UpstreamError    → 500 (raw fragment included when present)
//	*assistant.PersistenceError → 500
func (h *Handlers) respondFailure(w http.ResponseWriter, r *http.Request, op, publicMsg string, err error, shape func(*zerolog.Event)) {
	var (
		ve *assistant.ValidationError
		nf *store.ErrNotFound
		ue *assistant.UpstreamError
		pe *assistant.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Message)
		return
	case errors.As(err, &nf):
		respondError(w, http.StatusNotFound, nf.Error())
		return
	}

	body := map[string]string{"error": publicMsg}
	switch {
	case errors.As(err, &ue):
		if ue.Fragment != "" {
			body["rawResponse"] = ue.Fragment
		}
	case errors.As(err, &pe):
		body["error"] = "Failed to save draft"
	}
	if h.Development {
		body["detail"] = err.Error()
	}

	event := log.Error().Stack().Err(pkgerrors.WithStack(err)).
		Str("op", op).
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("owner", pkgmw.Owner(r.Context()))
	if shape != nil {
		shape(event)
	}
	event.Msg("Assistant request failed")

	respondJSON(w, http.StatusInternalServerError, body)
}
