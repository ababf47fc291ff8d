// Package models holds the shared data types of the Counsel service.
package models

import (
	"time"
)

// ── Conversation ─────────────────────────────────────────────

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	// TurnRoleUser is the instruction-issuer side of the conversation.
	TurnRoleUser TurnRole = "user"
	// TurnRoleModel is the generative service side of the conversation.
	TurnRoleModel TurnRole = "model"
)

// Valid reports whether r is one of the known roles.
func (r TurnRole) Valid() bool {
	return r == TurnRoleUser || r == TurnRoleModel
}

// ConversationTurn is a single prior exchange supplied by the caller.
// Slices of turns are ordered oldest first.
type ConversationTurn struct {
	Role TurnRole `json:"role"`
	Text string   `json:"text"`
}

// ContextPayload carries the optional grounding fragments of a request.
type ContextPayload struct {
	DocumentText    string `json:"documentText,omitempty"`
	DocumentName    string `json:"documentName,omitempty"`
	FreeTextSnippet string `json:"freeTextSnippet,omitempty"`
	CaseReference   string `json:"caseReference,omitempty"`
	ClientReference string `json:"clientReference,omitempty"`
}

// ── Generation ───────────────────────────────────────────────

// GenerationConfig holds the sampling parameters attached to every
// free-text generation call.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig returns the fixed generation parameters.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 8192,
	}
}

// ── Case & Client ────────────────────────────────────────────

// Case is the subset of a case record the assistant reads for grounding.
type Case struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Number      string    `json:"number"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Client is the subset of a client record the assistant reads for grounding.
type Client struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName joins first and last name.
func (c *Client) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ── Draft ────────────────────────────────────────────────────

// DraftStatus is the lifecycle state of a stored draft.
type DraftStatus string

const (
	DraftStatusInProgress  DraftStatus = "in_progress"
	DraftStatusUnderReview DraftStatus = "under_review"
	DraftStatusFinalized   DraftStatus = "finalized"
	DraftStatusArchived    DraftStatus = "archived"
)

// Valid reports whether s is a known lifecycle state.
func (s DraftStatus) Valid() bool {
	switch s {
	case DraftStatusInProgress, DraftStatusUnderReview, DraftStatusFinalized, DraftStatusArchived:
		return true
	}
	return false
}

// Draft is a generated legal document persisted with its provenance.
// SourcePrompt is the caller's original instruction and never changes.
type Draft struct {
	ID           string      `json:"id"`
	Owner        string      `json:"owner"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	DraftType    string      `json:"draftType,omitempty"`
	SourcePrompt string      `json:"sourcePrompt"`
	LinkedCase   string      `json:"linkedCase,omitempty"`
	LinkedClient string      `json:"linkedClient,omitempty"`
	Status       DraftStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// DraftFilter narrows draft listings.
type DraftFilter struct {
	Status DraftStatus // exact match, empty = any
	Limit  int         // max results (default 50)
}

// ── Extraction ───────────────────────────────────────────────

// CaseIntake is the typed result of the case-intake extraction preset.
type CaseIntake struct {
	CaseName   string   `json:"caseName" jsonschema:"required,description=Short name of the matter"`
	CaseNumber string   `json:"caseNumber" jsonschema:"description=Docket or case number if stated"`
	Court      string   `json:"court" jsonschema:"description=Court or tribunal handling the matter"`
	Parties    []string `json:"parties" jsonschema:"description=Named parties to the matter"`
	FilingDate string   `json:"filingDate" jsonschema:"description=Filing date as written in the text"`
	Summary    string   `json:"summary" jsonschema:"required,description=One paragraph summary of the dispute"`
}
