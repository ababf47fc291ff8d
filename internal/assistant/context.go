// Package assistant implements the AI drafting core of the Counsel service.
//
// It layers grounding context (documents, snippets, case and client records)
// onto caller instructions, drives the generative model through a fixed
// system instruction, sanitizes free-text output, persists generated drafts,
// and performs schema-constrained structured extraction.
//
// Every model call is a single attempt. There is no retry or backoff; the
// only deadlines are the inbound request context and the configured
// per-call timeout.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/counseldesk/counsel/internal/store"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DocumentLimit is the maximum number of characters of document text
	// placed into a prompt.
	DocumentLimit = 10000

	// TruncationMarker is appended to document text cut at DocumentLimit.
	TruncationMarker = "\n... [document truncated]"

	// DefaultDocumentName labels document text supplied without a name.
	DefaultDocumentName = "Untitled Document"
)

// Assembler layers optional context fragments ahead of an instruction.
type Assembler struct {
	cases   store.CaseStore
	clients store.ClientStore
}

// NewAssembler creates an assembler that resolves references against the
// given stores. Either store may be nil, in which case references of that
// kind never resolve.
func NewAssembler(cases store.CaseStore, clients store.ClientStore) *Assembler {
	return &Assembler{cases: cases, clients: clients}
}

// Assemble returns instruction wrapped in the context layers of p.
//
// The result reads, outermost first: case layer, client layer, document or
// snippet layer, instruction. Absent or unresolvable fragments contribute
// nothing.
func (a *Assembler) Assemble(ctx context.Context, p models.ContextPayload, instruction string) string {
	prompt := instruction

	switch {
	case p.DocumentText != "":
		name := p.DocumentName
		if name == "" {
			name = DefaultDocumentName
		}
		prompt = fmt.Sprintf("Document Name: %s\nDocument Content:\n%s\n\n", name, TruncateDocument(p.DocumentText)) +
			"Based on the above document, " + prompt
	case p.FreeTextSnippet != "":
		prompt = "Consider the following document content for context: \"" + p.FreeTextSnippet + "\".\n\n" + prompt
	}

	c, k := a.Resolve(ctx, p.CaseReference, p.ClientReference)
	if k != nil {
		prompt = "Regarding Client " + describeClient(k) + ": \n\n" + prompt
	}
	if c != nil {
		prompt = "Regarding Case " + describeCase(c) + ": \n\n" + prompt
	}
	return prompt
}

// Resolve looks up the referenced case and client concurrently. A reference
// that is empty, unknown, or fails to load yields nil.
func (a *Assembler) Resolve(ctx context.Context, caseRef, clientRef string) (*models.Case, *models.Client) {
	var (
		c *models.Case
		k *models.Client
		g errgroup.Group
	)

	if caseRef != "" && a.cases != nil {
		g.Go(func() error {
			found, err := a.cases.GetCase(ctx, caseRef)
			if err != nil {
				logLookupFailure("case", caseRef, err)
				return nil
			}
			c = found
			return nil
		})
	}
	if clientRef != "" && a.clients != nil {
		g.Go(func() error {
			found, err := a.clients.GetClient(ctx, clientRef)
			if err != nil {
				logLookupFailure("client", clientRef, err)
				return nil
			}
			k = found
			return nil
		})
	}

	_ = g.Wait()
	return c, k
}

func logLookupFailure(entity, ref string, err error) {
	var nf *store.ErrNotFound
	if errors.As(err, &nf) {
		log.Debug().Str("entity", entity).Str("ref", ref).Msg("Context reference not found, skipping")
		return
	}
	log.Warn().Err(err).Str("entity", entity).Str("ref", ref).Msg("Context lookup failed, skipping")
}

// TruncateDocument cuts text to DocumentLimit characters and appends
// TruncationMarker. Text at or under the limit is returned unchanged.
func TruncateDocument(text string) string {
	if utf8.RuneCountInString(text) <= DocumentLimit {
		return text
	}
	return truncateRunes(text, DocumentLimit) + TruncationMarker
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func describeCase(c *models.Case) string {
	return fmt.Sprintf("\"%s\" (Number: %s, Description: %s)", c.Name, c.Number, orNA(c.Description))
}

func describeClient(k *models.Client) string {
	return fmt.Sprintf("\"%s\" (Email: %s, Phone: %s)", k.FirstName+" "+k.LastName, orNA(k.Email), orNA(k.Phone))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
