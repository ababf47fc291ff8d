package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/counseldesk/counsel/internal/assistant"
	"github.com/counseldesk/counsel/pkg/models"
)

func TestGenerate_NoHistory(t *testing.T) {
	m := &fakeModel{text: "## Answer\n\nThe **limitation period** is `three` years.\n\n\n\nConsult counsel."}
	g := assistant.NewGenerator(m, models.DefaultGenerationConfig(), 0)

	got, err := g.Generate(context.Background(), "What is the statute of limitations?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := "Answer\n\nThe limitation period is three years.\n\nConsult counsel."
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}

	call := m.lastCall(t)
	if len(call.contents) != 2 {
		t.Fatalf("contents length = %d, want 2", len(call.contents))
	}
	if call.contents[0].Text != assistant.SystemInstruction {
		t.Errorf("contents[0] should be the system instruction, got %q", call.contents[0].Text)
	}
	if call.contents[1].Role != models.TurnRoleUser ||
		call.contents[1].Text != "Please provide a formal response to: What is the statute of limitations?" {
		t.Errorf("current turn = %+v", call.contents[1])
	}
	if call.cfg.Generation == nil || *call.cfg.Generation != models.DefaultGenerationConfig() {
		t.Errorf("generation config = %+v, want defaults", call.cfg.Generation)
	}
	if call.cfg.Structured() {
		t.Error("free-text call should not request JSON output")
	}
}

func TestGenerate_HistoryOrder(t *testing.T) {
	m := &fakeModel{text: "ok"}
	g := assistant.NewGenerator(m, models.DefaultGenerationConfig(), 0)

	history := []models.ConversationTurn{
		{Role: models.TurnRoleUser, Text: "first question"},
		{Role: models.TurnRoleModel, Text: "first answer"},
		{Role: models.TurnRoleUser, Text: "second question"},
		{Role: models.TurnRoleModel, Text: "**second** answer"},
	}
	if _, err := g.Generate(context.Background(), "third", history); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	call := m.lastCall(t)
	if len(call.contents) != len(history)+2 {
		t.Fatalf("contents length = %d, want %d", len(call.contents), len(history)+2)
	}
	if call.contents[0].Text != assistant.SystemInstruction {
		t.Error("system instruction must come first")
	}
	for i, turn := range history {
		c := call.contents[i+1]
		if c.Role != turn.Role || c.Text != turn.Text {
			t.Errorf("contents[%d] = %+v, want %+v verbatim", i+1, c, turn)
		}
	}
	if last := call.contents[len(call.contents)-1]; !strings.HasSuffix(last.Text, "third") {
		t.Errorf("last content = %q, want current turn", last.Text)
	}
}

func TestGenerate_InvalidRole(t *testing.T) {
	m := &fakeModel{text: "ok"}
	g := assistant.NewGenerator(m, models.DefaultGenerationConfig(), 0)

	_, err := g.Generate(context.Background(), "q", []models.ConversationTurn{{Role: "system", Text: "x"}})
	var ve *assistant.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Generate() error = %v, want ValidationError", err)
	}
	if ve.Field != "chatHistory[0].role" {
		t.Errorf("ValidationError.Field = %q", ve.Field)
	}
	if m.callCount() != 0 {
		t.Error("model should not be called on invalid history")
	}
}

func TestGenerate_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"call error", &fakeModel{err: errors.New("quota exceeded")}},
		{"no payload", &fakeModel{nilResp: true}},
		{"empty text", &fakeModel{text: "   "}},
		{"only markup", &fakeModel{text: "**``**"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := assistant.NewGenerator(tt.model, models.DefaultGenerationConfig(), 0)
			_, err := g.Generate(context.Background(), "q", nil)
			var ue *assistant.UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("Generate() error = %v, want UpstreamError", err)
			}
			if tt.model.callCount() != 1 {
				t.Errorf("model called %d times, want exactly 1 (no retry)", tt.model.callCount())
			}
		})
	}
}
