package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/counseldesk/counsel/internal/assistant"
	"github.com/counseldesk/counsel/pkg/models"
	pkgmw "github.com/counseldesk/counsel/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ══════════════════════════════════════════════════════════════
// ── AI Handlers ──────────────────────────────────────────────
// ══════════════════════════════════════════════════════════════

type generateAnswerRequest struct {
	Message     json.RawMessage           `json:"message"`
	ChatHistory []models.ConversationTurn `json:"chatHistory"`
	ContextData *models.ContextPayload    `json:"contextData"`
}

// GenerateAnswer handles POST /api/v1/ai/generate-answer.
func (h *Handlers) GenerateAnswer(w http.ResponseWriter, r *http.Request) {
	var req generateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg := gjson.ParseBytes(req.Message)
	switch {
	case !msg.Exists() || msg.Type == gjson.Null:
		respondError(w, http.StatusBadRequest, "message is required")
		return
	case msg.Type != gjson.String:
		respondError(w, http.StatusBadRequest, "message must be a string")
		return
	case strings.TrimSpace(msg.String()) == "":
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	message := msg.String()

	var payload models.ContextPayload
	if req.ContextData != nil {
		payload = *req.ContextData
	}

	prompt := h.Assembler.Assemble(r.Context(), payload, message)
	text, err := h.Generator.Generate(r.Context(), prompt, req.ChatHistory)
	if err != nil {
		h.respondFailure(w, r, "generate-answer", "Failed to generate response", err, func(e *zerolog.Event) {
			e.Int("message_len", len(message)).
				Int("history_len", len(req.ChatHistory)).
				Bool("has_document", payload.DocumentText != "").
				Bool("has_snippet", payload.FreeTextSnippet != "").
				Bool("has_case", payload.CaseReference != "").
				Bool("has_client", payload.ClientReference != "")
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"response": text,
	})
}

// GenerateDraft handles POST /api/v1/ai/generate-draft.
func (h *Handlers) GenerateDraft(w http.ResponseWriter, r *http.Request) {
	var req assistant.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.Drafts.GenerateDraft(r.Context(), pkgmw.Owner(r.Context()), req)
	if err != nil {
		h.respondFailure(w, r, "generate-draft", "Failed to generate draft", err, func(e *zerolog.Event) {
			e.Int("prompt_len", len(req.Prompt)).
				Str("draft_type", req.DraftType).
				Bool("has_case", req.CaseReference != "").
				Bool("has_client", req.ClientReference != "").
				Bool("has_snippet", req.DocumentSnippet != "")
		})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Draft generated successfully",
		"draft":   draft,
	})
}

type extractRequest struct {
	TextToAnalyze    string          `json:"textToAnalyze"`
	ExtractionSchema json.RawMessage `json:"extractionSchema"`
}

// ExtractStructured handles POST /api/v1/ai/extract-structured.
func (h *Handlers) ExtractStructured(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.TextToAnalyze) == "" {
		respondError(w, http.StatusBadRequest, "textToAnalyze is required")
		return
	}

	raw := gjson.ParseBytes(req.ExtractionSchema)
	if !raw.Exists() || raw.Type == gjson.Null {
		respondError(w, http.StatusBadRequest, "extractionSchema is required")
		return
	}
	if !raw.IsObject() {
		respondError(w, http.StatusBadRequest, "extractionSchema must be a JSON object")
		return
	}
	var schema map[string]any
	if err := json.Unmarshal(req.ExtractionSchema, &schema); err != nil {
		respondError(w, http.StatusBadRequest, "extractionSchema must be a JSON object")
		return
	}

	data, err := h.Extractor.Extract(r.Context(), req.TextToAnalyze, schema)
	if err != nil {
		h.respondFailure(w, r, "extract-structured", "Failed to extract structured data", err, func(e *zerolog.Event) {
			e.Int("text_len", len(req.TextToAnalyze)).
				Str("schema_type", raw.Get("type").String())
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"extractedData": data,
		"message":       "Data extracted successfully",
	})
}

// ExtractCaseIntake handles POST /api/v1/ai/extract-case-intake.
func (h *Handlers) ExtractCaseIntake(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intake, err := h.Extractor.ExtractCaseIntake(r.Context(), req.TextToAnalyze)
	if err != nil {
		h.respondFailure(w, r, "extract-case-intake", "Failed to extract case intake", err, func(e *zerolog.Event) {
			e.Int("text_len", len(req.TextToAnalyze))
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"extractedData": intake,
		"message":       "Data extracted successfully",
	})
}
