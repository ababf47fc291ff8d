// Package contracts defines the service interfaces at the edge of the
// Counsel service.
//
// The assistant core depends only on these interfaces, so the generative
// model backend (Gemini, Vertex AI, OpenAI, or a test fake) is a single line
// change in the wiring code (pkg/server).
package contracts

import (
	"context"
	"errors"

	"github.com/counseldesk/counsel/pkg/models"
)

// ── Generative Model ────────────────────────────────────────

// Content is one element of the ordered contents sent to the model.
type Content struct {
	Role models.TurnRole `json:"role"`
	Text string          `json:"text"`
}

// MIMETypeJSON requests JSON-typed output from the model.
const MIMETypeJSON = "application/json"

// ErrUnsupportedSchema is wrapped by backends that cannot express the
// caller's response schema. No request is sent in that case.
var ErrUnsupportedSchema = errors.New("response schema not supported by model")

// InvokeConfig carries the per-call parameters.
//
// Free-text calls set Generation. Structured calls set ResponseMIMEType to
// MIMETypeJSON and ResponseSchema to the caller's schema, which the backend
// must forward as a hard output constraint.
type InvokeConfig struct {
	Generation       *models.GenerationConfig
	ResponseMIMEType string
	ResponseSchema   map[string]any
}

// Structured reports whether the call requests schema-constrained JSON.
func (c InvokeConfig) Structured() bool {
	return c.ResponseMIMEType == MIMETypeJSON
}

// ModelResponse is the opaque result of one generation call.
type ModelResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	InputTokens  int64  `json:"input_tokens,omitempty"`
	OutputTokens int64  `json:"output_tokens,omitempty"`
}

// Model is the external generative language service.
//
// Implementations perform exactly one request per call. A nil response
// with a nil error is treated by callers as "no payload".
//
// OSS ships: Gemini API, Vertex AI, OpenAI, and a canned mock.
type Model interface {
	// Name returns the backend identifier (e.g. "gemini", "openai").
	Name() string

	// Invoke sends the ordered contents and returns the model output.
	Invoke(ctx context.Context, contents []Content, cfg InvokeConfig) (*ModelResponse, error)
}
