package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/counseldesk/counsel/internal/llm"
	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"amount"},
		"properties": map[string]any{
			"amount": map[string]any{"type": "number", "description": "Total due"},
			"payee":  map[string]any{"type": []any{"string", "null"}},
			"lines": map[string]any{
				"type":     "array",
				"maxItems": 10,
				"items":    map[string]any{"type": "string"},
			},
		},
	}

	got, err := llm.GeminiSchema(schema)
	if err != nil {
		t.Fatalf("GeminiSchema() error = %v", err)
	}
	if got.Type != genai.TypeObject {
		t.Errorf("Type = %q, want OBJECT", got.Type)
	}
	if len(got.Required) != 1 || got.Required[0] != "amount" {
		t.Errorf("Required = %v", got.Required)
	}

	amount := got.Properties["amount"]
	if amount == nil || amount.Type != genai.TypeNumber || amount.Description != "Total due" {
		t.Errorf("amount = %+v", amount)
	}
	payee := got.Properties["payee"]
	if payee == nil || payee.Type != genai.TypeString || payee.Nullable == nil || !*payee.Nullable {
		t.Errorf("payee = %+v, want nullable STRING", payee)
	}
	lines := got.Properties["lines"]
	if lines == nil || lines.Type != genai.TypeArray || lines.Items == nil || lines.Items.Type != genai.TypeString {
		t.Errorf("lines = %+v", lines)
	}

	// The caller's map is left untouched.
	if schema["type"] != "object" {
		t.Error("GeminiSchema() mutated its input")
	}
}

func TestGeminiSchema_Enum(t *testing.T) {
	tests := []struct {
		name   string
		schema map[string]any
		want   []string
	}{
		{"string enum", map[string]any{"type": "string", "enum": []any{"open", "closed"}}, []string{"open", "closed"}},
		{"untyped enum", map[string]any{"enum": []any{"a", 1.5}}, []string{"a", "1.5"}},
		{"nullable string enum", map[string]any{"type": []any{"string", "null"}, "enum": []any{"x", nil}}, []string{"x"}},
		{"integer enum dropped", map[string]any{"type": "integer", "enum": []any{1, 2, 3}}, nil},
		{"number enum dropped", map[string]any{"type": "number", "enum": []any{0.5, 1.0}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.GeminiSchema(map[string]any{
				"type":       "object",
				"properties": map[string]any{"field": tt.schema},
			})
			if err != nil {
				t.Fatalf("GeminiSchema() error = %v", err)
			}
			field := got.Properties["field"]
			if field == nil {
				t.Fatal("field property missing")
			}
			if strings.Join(field.Enum, ",") != strings.Join(tt.want, ",") || len(field.Enum) != len(tt.want) {
				t.Errorf("Enum = %v, want %v", field.Enum, tt.want)
			}
		})
	}
}

func TestGeminiSchema_Unsupported(t *testing.T) {
	_, err := llm.GeminiSchema(map[string]any{"type": "object", "description": 5})
	if !errors.Is(err, contracts.ErrUnsupportedSchema) {
		t.Errorf("GeminiSchema() error = %v, want ErrUnsupportedSchema", err)
	}
}

func TestMockModel(t *testing.T) {
	m := llm.NewMockModel()
	ctx := context.Background()

	resp, err := m.Invoke(ctx, []contracts.Content{
		{Role: models.TurnRoleUser, Text: "system"},
		{Role: models.TurnRoleUser, Text: "Please provide a formal response to: hello"},
	}, contracts.InvokeConfig{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !strings.Contains(resp.Text, "hello") {
		t.Errorf("free-text mock = %q, want echo of last turn", resp.Text)
	}

	resp, err = m.Invoke(ctx, []contracts.Content{{Role: models.TurnRoleUser, Text: "x"}}, contracts.InvokeConfig{
		ResponseMIMEType: contracts.MIMETypeJSON,
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount":  map[string]any{"type": "number"},
				"parties": map[string]any{"type": "array"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Invoke(structured) error = %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Text), &out); err != nil {
		t.Fatalf("structured mock is not JSON: %q", resp.Text)
	}
	if out["amount"] != float64(0) {
		t.Errorf("amount = %v, want 0", out["amount"])
	}
	if _, ok := out["parties"].([]any); !ok {
		t.Errorf("parties = %T, want array", out["parties"])
	}
}
