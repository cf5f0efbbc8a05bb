package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldSpec declares a single front-matter field in a collection schema.
// Type accepts the JSON Schema primitives plus "date", which is left open in
// the compiled schema and enforced separately through ParseDate so YAML
// timestamps and common string layouts both satisfy it.
type FieldSpec struct {
	Name     string
	Type     string
	Required bool
	Default  any
	// Schema overrides the generated property schema when set.
	Schema map[string]any
}

// Normalize converts field specs into a JSON Schema object suitable for
// compilation. Unknown field types produce an unconstrained property.
func Normalize(fields []FieldSpec) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		if field.Schema != nil {
			properties[name] = cloneMap(field.Schema)
		} else if jsonType := normalizeJSONType(field.Type); jsonType != "" {
			properties[name] = map[string]any{"type": jsonType}
		} else {
			properties[name] = map[string]any{}
		}
		if field.Required {
			required = append(required, name)
		}
	}

	if len(properties) == 0 {
		return nil
	}

	normalized := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

// ValidateSchema ensures the schema can be compiled.
func ValidateSchema(schema map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if _, err := Compile(schema); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return nil
}

// ValidatePayload validates payload against the provided schema. Payloads are
// normalised first so YAML decoder output (timestamps, typed numbers, nested
// any-keyed maps) matches the JSON data model the compiler expects.
func ValidatePayload(schema map[string]any, payload map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	compiled, err := Compile(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := compiled.Validate(NormalizePayload(payload)); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// ApplyDefaults returns a copy of payload with declared defaults filled in for
// absent fields. Present values, including explicit zero values, are kept.
func ApplyDefaults(fields []FieldSpec, payload map[string]any) map[string]any {
	out := cloneMap(payload)
	if out == nil {
		out = map[string]any{}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" || field.Default == nil {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = field.Default
		}
	}
	return out
}

// DateFields lists the declared date-typed field names.
func DateFields(fields []FieldSpec) []string {
	var names []string
	for _, field := range fields {
		if strings.EqualFold(strings.TrimSpace(field.Type), "date") {
			if name := strings.TrimSpace(field.Name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Compile builds the schema into an evaluator using Draft 2020-12.
func Compile(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func normalizeJSONType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return strings.ToLower(strings.TrimSpace(value))
	default:
		return ""
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	if input == nil {
		return nil
	}
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
