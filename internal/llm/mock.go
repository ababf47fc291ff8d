package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/counseldesk/counsel/pkg/contracts"
)

// MockModel returns deterministic canned output. Used for local development
// without model credentials.
type MockModel struct{}

func NewMockModel() *MockModel { return &MockModel{} }

func (m *MockModel) Name() string { return "mock" }

// Invoke echoes the last turn for free-text calls. Structured calls return
// a zero value shaped by the response schema.
func (m *MockModel) Invoke(_ context.Context, contents []contracts.Content, cfg contracts.InvokeConfig) (*contracts.ModelResponse, error) {
	if cfg.Structured() {
		data, err := json.Marshal(zeroValue(cfg.ResponseSchema))
		if err != nil {
			return nil, fmt.Errorf("mock: %w", err)
		}
		return &contracts.ModelResponse{Text: string(data), FinishReason: "STOP"}, nil
	}

	last := ""
	if len(contents) > 0 {
		last = contents[len(contents)-1].Text
	}
	return &contracts.ModelResponse{
		Text:         "This is a mock response.\n\n" + last,
		FinishReason: "STOP",
		InputTokens:  int64(len(strings.Fields(last))),
	}, nil
}

func zeroValue(schema map[string]any) any {
	typ, _ := schema["type"].(string)
	switch typ {
	case "object":
		out := map[string]any{}
		props, _ := schema["properties"].(map[string]any)
		for name, p := range props {
			pm, _ := p.(map[string]any)
			out[name] = zeroValue(pm)
		}
		return out
	case "array":
		return []any{}
	case "string":
		return ""
	case "number", "integer":
		return 0
	case "boolean":
		return false
	}
	return nil
}
