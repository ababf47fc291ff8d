package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/counseldesk/counsel/pkg/contracts"
	"google.golang.org/genai"
)

// GeminiSchema converts a JSON-schema-shaped map into a genai.Schema.
//
// Type names are upper-cased to Gemini's enum ("object" becomes "OBJECT"),
// and a type list such as ["string", "null"] becomes a single type with
// nullable set. Count constraints (minItems, maxLength, ...) are dropped
// because genai encodes them as strings; other keywords Gemini does not
// support are dropped by decoding.
//
// Gemini enums are strings only. String-typed enums are kept with their
// values formatted as strings; enums on other types are dropped.
//
// Errors wrap contracts.ErrUnsupportedSchema.
func GeminiSchema(schema map[string]any) (*genai.Schema, error) {
	data, err := json.Marshal(normalizeSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", contracts.ErrUnsupportedSchema, err)
	}
	var out genai.Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUnsupportedSchema, err)
	}
	return &out, nil
}

func normalizeSchema(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch k {
		case "type":
			typ, nullable := normalizeType(v)
			if typ != "" {
				out["type"] = typ
			}
			if nullable {
				out["nullable"] = true
			}
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				continue
			}
			np := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					np[name] = normalizeSchema(pm)
				}
			}
			out[k] = np
		case "items":
			if im, ok := v.(map[string]any); ok {
				out[k] = normalizeSchema(im)
			}
		case "anyOf":
			list, ok := v.([]any)
			if !ok {
				continue
			}
			var nl []any
			for _, item := range list {
				if im, ok := item.(map[string]any); ok {
					nl = append(nl, normalizeSchema(im))
				}
			}
			out[k] = nl
		case "enum":
			if values, ok := stringEnum(in["type"], v); ok {
				out[k] = values
			}
		case "minItems", "maxItems", "minLength", "maxLength", "minProperties", "maxProperties":
			continue
		default:
			out[k] = v
		}
	}
	return out
}

func normalizeType(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.ToUpper(t), false
	case []any:
		var typ string
		nullable := false
		for _, item := range t {
			s, _ := item.(string)
			if s == "null" {
				nullable = true
				continue
			}
			if typ == "" {
				typ = strings.ToUpper(s)
			}
		}
		return typ, nullable
	}
	return "", false
}

// stringEnum formats enum values as strings when the schema type is string
// or undeclared. Other types report false.
func stringEnum(typ, enum any) ([]string, bool) {
	if t, _ := normalizeType(typ); t != "" && t != string(genai.TypeString) {
		return nil, false
	}
	list, ok := enum.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
		case nil:
			continue
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out, true
}
