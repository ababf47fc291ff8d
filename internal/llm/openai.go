package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// DefaultOpenAIModel is used when no model name is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI backend.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
}

// OpenAIModel implements contracts.Model with the Responses API.
// TopK has no OpenAI equivalent and is not sent.
type OpenAIModel struct {
	client    openai.Client
	modelName string
}

// NewOpenAIModel creates an OpenAI-backed model.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	return &OpenAIModel{client: openai.NewClient(opts...), modelName: modelName}, nil
}

func (o *OpenAIModel) Name() string { return "openai:" + o.modelName }

// Invoke implements contracts.Model.
func (o *OpenAIModel) Invoke(ctx context.Context, contents []contracts.Content, cfg contracts.InvokeConfig) (*contracts.ModelResponse, error) {
	resp, err := o.client.Responses.New(ctx, openAIParams(o.modelName, contents, cfg))
	if err != nil {
		return nil, fmt.Errorf("openai responses: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return &contracts.ModelResponse{
		Text:         resp.OutputText(),
		FinishReason: string(resp.Status),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func openAIParams(model string, contents []contracts.Content, cfg contracts.InvokeConfig) responses.ResponseNewParams {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(contents))
	for _, c := range contents {
		role := responses.EasyInputMessageRoleUser
		if c.Role == models.TurnRoleModel {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(c.Text, role))
	}

	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}

	if g := cfg.Generation; g != nil {
		params.Temperature = openai.Float(g.Temperature)
		params.TopP = openai.Float(g.TopP)
		params.MaxOutputTokens = openai.Int(int64(g.MaxOutputTokens))
	}

	// json_schema output requires an object root.
	if cfg.Structured() && cfg.ResponseSchema != nil && cfg.ResponseSchema["type"] == "object" {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   "extraction",
					Schema: cfg.ResponseSchema,
					Strict: openai.Bool(false),
					Type:   "json_schema",
				},
			},
		}
	}
	return params
}
