// Package llm holds the generative model backends behind contracts.Model:
// Gemini (API key or Vertex AI), OpenAI, and a deterministic mock.
//
// Each backend performs exactly one request per Invoke. Backend selection is
// a deploy-time choice; nothing here falls back from one provider to another.
package llm

import (
	"context"
	"fmt"

	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig selects the Gemini backend. APIKey selects the Gemini
// Developer API; otherwise Project and Location select Vertex AI.
type GeminiConfig struct {
	APIKey    string
	Project   string
	Location  string
	ModelName string
}

// GeminiModel implements contracts.Model with google.golang.org/genai.
type GeminiModel struct {
	client    *genai.Client
	modelName string
	backend   string
}

// NewGeminiModel creates a Gemini client for the configured backend.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	cc := &genai.ClientConfig{}
	backend := "gemini"
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
		backend = "vertex"
	default:
		return nil, fmt.Errorf("gemini: either GEMINI_API_KEY or COUNSEL_GCP_PROJECT and COUNSEL_GCP_LOCATION must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", backend, err)
	}
	return &GeminiModel{client: client, modelName: modelName, backend: backend}, nil
}

func (g *GeminiModel) Name() string { return g.backend + ":" + g.modelName }

// Invoke implements contracts.Model.
func (g *GeminiModel) Invoke(ctx context.Context, contents []contracts.Content, cfg contracts.InvokeConfig) (*contracts.ModelResponse, error) {
	gc, err := geminiConfig(cfg)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, geminiContents(contents), gc)
	if err != nil {
		return nil, fmt.Errorf("%s generate content: %w", g.backend, err)
	}
	if res == nil {
		return nil, nil
	}

	out := &contracts.ModelResponse{Text: res.Text()}
	if len(res.Candidates) > 0 && res.Candidates[0] != nil {
		out.FinishReason = string(res.Candidates[0].FinishReason)
	}
	if res.UsageMetadata != nil {
		out.InputTokens = int64(res.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(res.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func geminiContents(contents []contracts.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := genai.Role(genai.RoleUser)
		if c.Role == models.TurnRoleModel {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(c.Text, role))
	}
	return out
}

func geminiConfig(cfg contracts.InvokeConfig) (*genai.GenerateContentConfig, error) {
	gc := &genai.GenerateContentConfig{}

	if g := cfg.Generation; g != nil {
		temp := float32(g.Temperature)
		topP := float32(g.TopP)
		topK := float32(g.TopK)
		gc.Temperature = &temp
		gc.TopP = &topP
		gc.TopK = &topK
		gc.MaxOutputTokens = int32(g.MaxOutputTokens)
	}

	if cfg.Structured() {
		gc.ResponseMIMEType = cfg.ResponseMIMEType
		if cfg.ResponseSchema != nil {
			schema, err := GeminiSchema(cfg.ResponseSchema)
			if err != nil {
				return nil, err
			}
			gc.ResponseSchema = schema
		}
	}
	return gc, nil
}
