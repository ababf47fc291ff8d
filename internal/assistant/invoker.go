package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("counsel-assistant")

// DefaultTimeout bounds a single model call when none is configured.
const DefaultTimeout = 120 * time.Second

// Generator is the only path to the model for free-text generation.
type Generator struct {
	model   contracts.Model
	config  models.GenerationConfig
	timeout time.Duration
}

// NewGenerator creates a generator that attaches cfg to every call. A
// non-positive timeout falls back to DefaultTimeout.
func NewGenerator(model contracts.Model, cfg models.GenerationConfig, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{model: model, config: cfg, timeout: timeout}
}

// Generate sends prompt after the system instruction and history and
// returns the sanitized reply.
func (g *Generator) Generate(ctx context.Context, prompt string, history []models.ConversationTurn) (string, error) {
	contents, err := BuildContents(history, prompt)
	if err != nil {
		return "", err
	}

	cfg := g.config
	resp, err := invoke(ctx, g.model, g.timeout, "generate", contents, contracts.InvokeConfig{Generation: &cfg})
	if err != nil {
		return "", err
	}

	text := Sanitize(resp.Text)
	if text == "" {
		return "", &UpstreamError{Op: "generate", Message: "model returned empty text"}
	}
	return text, nil
}

// invoke performs one model call under a span and the per-call timeout.
// A nil response or blank text is reported as an UpstreamError.
func invoke(ctx context.Context, model contracts.Model, timeout time.Duration, op string, contents []contracts.Content, cfg contracts.InvokeConfig) (*contracts.ModelResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "model."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("counsel.model", model.Name()),
		attribute.Int("counsel.contents", len(contents)),
		attribute.Bool("counsel.structured", cfg.Structured()),
	)

	start := time.Now()
	resp, err := model.Invoke(ctx, contents, cfg)
	latency := time.Since(start)

	if errors.Is(err, contracts.ErrUnsupportedSchema) {
		span.SetStatus(codes.Error, "unsupported schema")
		log.Warn().Err(err).Str("op", op).Str("model", model.Name()).Msg("Response schema rejected before model call")
		return nil, &ValidationError{
			Field:   "extractionSchema",
			Message: "extractionSchema is not supported by the model: " + err.Error(),
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		log.Error().Err(err).
			Str("op", op).
			Str("model", model.Name()).
			Dur("latency", latency).
			Msg("Model call failed")
		return nil, &UpstreamError{Op: op, Message: "model call failed", Err: err}
	}
	if resp == nil {
		span.SetStatus(codes.Error, "no payload")
		return nil, &UpstreamError{Op: op, Message: "model returned no payload"}
	}
	if strings.TrimSpace(resp.Text) == "" {
		span.SetStatus(codes.Error, "empty text")
		return nil, &UpstreamError{Op: op, Message: "model returned empty text"}
	}

	span.SetAttributes(
		attribute.Int64("counsel.input_tokens", resp.InputTokens),
		attribute.Int64("counsel.output_tokens", resp.OutputTokens),
		attribute.String("counsel.finish_reason", resp.FinishReason),
	)
	log.Debug().
		Str("op", op).
		Str("model", model.Name()).
		Dur("latency", latency).
		Int64("output_tokens", resp.OutputTokens).
		Msg("Model call completed")
	return resp, nil
}
