package assistant

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/counseldesk/counsel/internal/store"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// draftDirective closes every draft instruction.
const draftDirective = "Return only the content of the draft itself. " +
	"Do not add any conversational introduction or closing remarks, " +
	"and do not wrap the draft in fenced code blocks."

// DraftRequest is the caller input for draft generation.
type DraftRequest struct {
	Title           string `json:"title"`
	DraftType       string `json:"draftType,omitempty"`
	Prompt          string `json:"prompt"`
	CaseReference   string `json:"caseReference,omitempty"`
	ClientReference string `json:"clientReference,omitempty"`
	DocumentSnippet string `json:"documentSnippet,omitempty"`
}

// DraftService generates drafts and serves them back to their owners.
type DraftService struct {
	generator *Generator
	assembler *Assembler
	drafts    store.DraftStore

	now   func() time.Time
	newID func() string
}

// NewDraftService wires a draft service.
func NewDraftService(gen *Generator, asm *Assembler, drafts store.DraftStore) *DraftService {
	return &DraftService{
		generator: gen,
		assembler: asm,
		drafts:    drafts,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// GenerateDraft produces and stores a new draft owned by owner.
//
// Validation failures never reach the model or the store. The stored
// SourcePrompt is req.Prompt as supplied, not the extended instruction.
func (s *DraftService) GenerateDraft(ctx context.Context, owner string, req DraftRequest) (*models.Draft, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, missingField("title")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, missingField("prompt")
	}

	c, k := s.assembler.Resolve(ctx, req.CaseReference, req.ClientReference)
	instruction := buildDraftInstruction(req, c, k)

	content, err := s.generator.Generate(ctx, instruction, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &models.Draft{
		ID:           s.newID(),
		Owner:        owner,
		Title:        strings.TrimSpace(req.Title),
		Content:      content,
		DraftType:    req.DraftType,
		SourcePrompt: req.Prompt,
		Status:       models.DraftStatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c != nil {
		d.LinkedCase = c.ID
	}
	if k != nil {
		d.LinkedClient = k.ID
	}

	if err := s.persist(ctx, d); err != nil {
		return nil, err
	}

	log.Info().
		Str("draft", d.ID).
		Str("owner", owner).
		Str("type", d.DraftType).
		Bool("linked_case", d.LinkedCase != "").
		Bool("linked_client", d.LinkedClient != "").
		Msg("Draft generated")
	return d, nil
}

func (s *DraftService) persist(ctx context.Context, d *models.Draft) error {
	ctx, span := tracer.Start(ctx, "store.create_draft")
	defer span.End()
	span.SetAttributes(attribute.String("counsel.draft_id", d.ID))

	if err := s.drafts.CreateDraft(ctx, d); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create draft failed")
		log.Error().Err(err).Str("draft", d.ID).Msg("Failed to persist draft")
		return &PersistenceError{Op: "create draft", Err: err}
	}
	return nil
}

func buildDraftInstruction(req DraftRequest, c *models.Case, k *models.Client) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	if req.DraftType != "" {
		fmt.Fprintf(&b, "\n\nDraft Type: %s", req.DraftType)
	}
	if c != nil {
		fmt.Fprintf(&b, "\n\nRelated Case: %s", describeCase(c))
	}
	if k != nil {
		fmt.Fprintf(&b, "\n\nRelated Client: %s", describeClient(k))
	}
	if req.DocumentSnippet != "" {
		fmt.Fprintf(&b, "\n\nReference Document Snippet:\n%s", req.DocumentSnippet)
	}
	b.WriteString("\n\n")
	b.WriteString(draftDirective)
	return b.String()
}

// GetDraft returns the draft with id if owner owns it. Drafts owned by
// someone else are reported as not found.
func (s *DraftService) GetDraft(ctx context.Context, owner, id string) (*models.Draft, error) {
	d, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Owner != owner {
		return nil, &store.ErrNotFound{Entity: "draft", Key: id}
	}
	return d, nil
}

// ListDrafts returns owner's drafts, newest first.
func (s *DraftService) ListDrafts(ctx context.Context, owner string, filter models.DraftFilter) ([]models.Draft, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown draft status %q", filter.Status)}
	}
	if filter.Limit < 0 {
		return nil, &ValidationError{Field: "limit", Message: "limit must not be negative"}
	}
	return s.drafts.ListDrafts(ctx, owner, filter)
}

// ExportHTML renders the draft as an HTML fragment for preview.
func (s *DraftService) ExportHTML(ctx context.Context, owner, id string) ([]byte, error) {
	d, err := s.GetDraft(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return RenderDraftHTML(d)
}

// RenderDraftHTML converts draft content to HTML under an escaped title
// heading. Content is treated as Markdown, so sanitized plain text renders
// as paragraphs.
func RenderDraftHTML(d *models.Draft) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(d.Content), &body); err != nil {
		return nil, fmt.Errorf("render draft %s: %w", d.ID, err)
	}

	var out bytes.Buffer
	out.WriteString("<article class=\"draft\">\n")
	fmt.Fprintf(&out, "<h1>%s</h1>\n", html.EscapeString(d.Title))
	out.Write(body.Bytes())
	out.WriteString("</article>\n")
	return out.Bytes(), nil
}
