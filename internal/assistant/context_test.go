package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/counseldesk/counsel/internal/assistant"
	"github.com/counseldesk/counsel/pkg/models"
)

func TestTruncateDocument(t *testing.T) {
	short := strings.Repeat("a", assistant.DocumentLimit)
	if got := assistant.TruncateDocument(short); got != short {
		t.Error("TruncateDocument() changed text at the limit")
	}

	long := strings.Repeat("b", assistant.DocumentLimit+500)
	got := assistant.TruncateDocument(long)
	if !strings.HasSuffix(got, assistant.TruncationMarker) {
		t.Errorf("truncated text should end with marker, got suffix %q", got[len(got)-30:])
	}
	if n := utf8.RuneCountInString(got); n > assistant.DocumentLimit+utf8.RuneCountInString(assistant.TruncationMarker) {
		t.Errorf("truncated length = %d, exceeds limit plus marker", n)
	}

	// Multi-byte text is cut on character boundaries.
	wide := strings.Repeat("é", assistant.DocumentLimit+1)
	got = assistant.TruncateDocument(wide)
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
	if want := strings.Repeat("é", assistant.DocumentLimit) + assistant.TruncationMarker; got != want {
		t.Error("multi-byte truncation did not keep exactly DocumentLimit characters")
	}
}

func TestAssemble_NoContext(t *testing.T) {
	a := assistant.NewAssembler(nil, nil)
	got := a.Assemble(context.Background(), models.ContextPayload{}, "What is the statute of limitations?")
	if got != "What is the statute of limitations?" {
		t.Errorf("Assemble() = %q, want instruction unchanged", got)
	}
}

func TestAssemble_Document(t *testing.T) {
	a := assistant.NewAssembler(nil, nil)

	got := a.Assemble(context.Background(), models.ContextPayload{
		DocumentText: "Lease text",
		DocumentName: "lease.pdf",
		// Snippet is ignored when document text is present.
		FreeTextSnippet: "ignored",
	}, "summarize it")

	want := "Document Name: lease.pdf\nDocument Content:\nLease text\n\nBased on the above document, summarize it"
	if got != want {
		t.Errorf("Assemble() = %q, want %q", got, want)
	}

	got = a.Assemble(context.Background(), models.ContextPayload{DocumentText: "x"}, "q")
	if !strings.HasPrefix(got, "Document Name: "+assistant.DefaultDocumentName+"\n") {
		t.Errorf("Assemble() without name = %q, want default document name", got)
	}
}

func TestAssemble_Snippet(t *testing.T) {
	a := assistant.NewAssembler(nil, nil)
	got := a.Assemble(context.Background(), models.ContextPayload{FreeTextSnippet: "Tenant shall pay rent"}, "explain")
	want := "Consider the following document content for context: \"Tenant shall pay rent\".\n\nexplain"
	if got != want {
		t.Errorf("Assemble() = %q, want %q", got, want)
	}
}

func TestAssemble_LayerOrder(t *testing.T) {
	s := newTestStore(t)
	a := assistant.NewAssembler(s, s)

	got := a.Assemble(context.Background(), models.ContextPayload{
		FreeTextSnippet: "clause 4",
		CaseReference:   "case-1",
		ClientReference: "client-1",
	}, "draft a reply")

	caseLayer := "Regarding Case \"Smith v. Jones\" (Number: CV-2024-001, Description: Breach of lease): \n\n"
	clientLayer := "Regarding Client \"Ada Lovelace\" (Email: ada@example.com, Phone: N/A): \n\n"

	ci := strings.Index(got, caseLayer)
	ki := strings.Index(got, clientLayer)
	si := strings.Index(got, "Consider the following document content")
	ii := strings.Index(got, "draft a reply")
	if ci != 0 {
		t.Fatalf("case layer should open the prompt, got %q", got)
	}
	if !(ci < ki && ki < si && si < ii) {
		t.Errorf("layer order wrong: case=%d client=%d snippet=%d instruction=%d in %q", ci, ki, si, ii, got)
	}
}

func TestAssemble_UnknownReferencesSkipped(t *testing.T) {
	s := newTestStore(t)
	a := assistant.NewAssembler(s, s)

	got := a.Assemble(context.Background(), models.ContextPayload{
		CaseReference:   "does-not-exist",
		ClientReference: "nobody",
	}, "question")
	if got != "question" {
		t.Errorf("Assemble() = %q, want no layers for unknown references", got)
	}
}

type brokenCases struct{}

func (brokenCases) GetCase(context.Context, string) (*models.Case, error) {
	return nil, errors.New("connection reset")
}
func (brokenCases) CreateCase(context.Context, *models.Case) error { return nil }

func TestAssemble_LookupErrorSkipped(t *testing.T) {
	s := newTestStore(t)
	a := assistant.NewAssembler(brokenCases{}, s)

	got := a.Assemble(context.Background(), models.ContextPayload{
		CaseReference:   "case-1",
		ClientReference: "client-1",
	}, "q")
	if strings.Contains(got, "Regarding Case") {
		t.Errorf("failed case lookup should be skipped, got %q", got)
	}
	if !strings.HasPrefix(got, "Regarding Client") {
		t.Errorf("client layer missing, got %q", got)
	}
}
