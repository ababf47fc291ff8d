package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// MaxFragmentLength caps the raw model output carried in extraction errors.
const MaxFragmentLength = 200

// Extractor performs schema-constrained extraction. The schema is forwarded
// to the model as a hard constraint and the returned payload must be valid
// JSON whose root type matches the schema; nothing is repaired.
type Extractor struct {
	model   contracts.Model
	timeout time.Duration
}

// NewExtractor creates an extractor. A non-positive timeout falls back to
// DefaultTimeout.
func NewExtractor(model contracts.Model, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{model: model, timeout: timeout}
}

// Extract returns the JSON value the model produced for text under schema.
// Objects decode to map[string]any and numbers to float64.
func (e *Extractor) Extract(ctx context.Context, text string, schema map[string]any) (any, error) {
	res, err := e.extract(ctx, text, schema)
	if err != nil {
		return nil, err
	}
	return res.Value(), nil
}

func (e *Extractor) extract(ctx context.Context, text string, schema map[string]any) (gjson.Result, error) {
	if strings.TrimSpace(text) == "" {
		return gjson.Result{}, missingField("textToAnalyze")
	}
	if len(schema) == 0 {
		return gjson.Result{}, missingField("extractionSchema")
	}

	prompt, err := extractionPrompt(text, schema)
	if err != nil {
		return gjson.Result{}, &ValidationError{Field: "extractionSchema", Message: "extractionSchema is not serializable: " + err.Error()}
	}

	contents := []contracts.Content{{Role: models.TurnRoleUser, Text: prompt}}
	resp, err := invoke(ctx, e.model, e.timeout, "extract", contents, contracts.InvokeConfig{
		ResponseMIMEType: contracts.MIMETypeJSON,
		ResponseSchema:   schema,
	})
	if err != nil {
		return gjson.Result{}, err
	}

	raw := resp.Text
	if !gjson.Valid(raw) {
		return gjson.Result{}, &UpstreamError{
			Op:       "extract",
			Message:  "model returned invalid JSON",
			Fragment: Fragment(raw),
		}
	}

	res := gjson.Parse(raw)
	if want, ok := schema["type"].(string); ok && !rootMatches(res, want) {
		return gjson.Result{}, &UpstreamError{
			Op:       "extract",
			Message:  fmt.Sprintf("model returned %s, schema requires %s", jsonKind(res), want),
			Fragment: Fragment(raw),
		}
	}
	return res, nil
}

func extractionPrompt(text string, schema map[string]any) (string, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return "Extract structured information from the text below. " +
		"Respond with only a JSON value that conforms to this JSON schema:\n" +
		string(schemaJSON) +
		"\n\nText to analyze:\n" + text +
		"\n\nDo not include explanations, comments or code fences.", nil
}

func rootMatches(res gjson.Result, schemaType string) bool {
	switch schemaType {
	case "object":
		return res.IsObject()
	case "array":
		return res.IsArray()
	case "string":
		return res.Type == gjson.String
	case "number":
		return res.Type == gjson.Number
	case "integer":
		return res.Type == gjson.Number && res.Num == float64(int64(res.Num))
	case "boolean":
		return res.Type == gjson.True || res.Type == gjson.False
	case "null":
		return res.Type == gjson.Null
	}
	return true
}

func jsonKind(res gjson.Result) string {
	switch {
	case res.IsObject():
		return "object"
	case res.IsArray():
		return "array"
	}
	switch res.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	}
	return "null"
}

// Fragment returns at most MaxFragmentLength characters of raw.
func Fragment(raw string) string {
	return truncateRunes(raw, MaxFragmentLength)
}

// ── Typed presets ───────────────────────────────────────────

// SchemaFor reflects a closed JSON schema from T's json and jsonschema tags.
func SchemaFor[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""

	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return m, nil
}

// ExtractInto extracts text into a value of type T, using the schema
// reflected from T.
func ExtractInto[T any](ctx context.Context, e *Extractor, text string) (*T, error) {
	schema, err := SchemaFor[T]()
	if err != nil {
		return nil, err
	}
	res, err := e.extract(ctx, text, schema)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return nil, &UpstreamError{
			Op:       "extract",
			Message:  "model output does not match the requested shape",
			Fragment: Fragment(res.Raw),
			Err:      err,
		}
	}
	return &out, nil
}

// ExtractCaseIntake pulls case-intake details out of free text.
func (e *Extractor) ExtractCaseIntake(ctx context.Context, text string) (*models.CaseIntake, error) {
	return ExtractInto[models.CaseIntake](ctx, e, text)
}
