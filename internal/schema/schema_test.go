package schema

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func postFields() []FieldSpec {
	return []FieldSpec{
		{Name: "title", Type: "string", Required: true},
		{Name: "description", Type: "string", Required: true},
		{Name: "date", Type: "date", Required: true},
		{Name: "draft", Type: "boolean", Default: false},
	}
}

func TestNormalize(t *testing.T) {
	normalized := Normalize(postFields())
	if normalized == nil {
		t.Fatalf("expected a normalized schema")
	}
	if normalized["type"] != "object" {
		t.Fatalf("expected object schema, got %v", normalized["type"])
	}

	properties, ok := normalized["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %#v", normalized["properties"])
	}
	title, ok := properties["title"].(map[string]any)
	if !ok || title["type"] != "string" {
		t.Fatalf("expected title to be a string property, got %#v", properties["title"])
	}

	// Date values arrive as YAML timestamps or strings in several layouts, so
	// the property stays unconstrained and ParseDate enforces it.
	date, ok := properties["date"].(map[string]any)
	if !ok || len(date) != 0 {
		t.Fatalf("expected date property to be unconstrained, got %#v", properties["date"])
	}

	required, ok := normalized["required"].([]string)
	if !ok || len(required) != 3 {
		t.Fatalf("expected three required fields, got %#v", normalized["required"])
	}
}

func TestValidatePayload_Valid(t *testing.T) {
	normalized := Normalize(postFields())
	payload := map[string]any{
		"title":       "Sample Post",
		"description": "A sample post",
		"date":        "2026-01-02",
		"draft":       false,
	}
	if err := ValidatePayload(normalized, payload); err != nil {
		t.Fatalf("ValidatePayload: %v", err)
	}
}

func TestValidatePayload_MissingRequired(t *testing.T) {
	normalized := Normalize(postFields())
	err := ValidatePayload(normalized, map[string]any{
		"title": "Sample Post",
		"date":  "2026-01-02",
	})
	if err == nil {
		t.Fatalf("expected validation error for missing description")
	}
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "description") {
		t.Fatalf("expected error to name the missing field, got %q", err.Error())
	}
}

func TestValidatePayload_WrongType(t *testing.T) {
	normalized := Normalize(postFields())
	err := ValidatePayload(normalized, map[string]any{
		"title":       42,
		"description": "typed wrong",
		"date":        "2026-01-02",
	})
	if err == nil {
		t.Fatalf("expected validation error for non-string title")
	}
	issues := Issues(err)
	if len(issues) == 0 {
		t.Fatalf("expected at least one issue")
	}
	found := false
	for _, issue := range issues {
		if strings.Contains(issue.Location, "title") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an issue located at title, got %#v", issues)
	}
}

func TestValidatePayload_YAMLTypedValues(t *testing.T) {
	normalized := Normalize(postFields())
	// YAML decoders hand back time.Time and int values; normalization must
	// bridge those into the JSON data model before schema evaluation.
	payload := map[string]any{
		"title":       "Typed",
		"description": "typed values",
		"date":        time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		"draft":       false,
		"weight":      3,
	}
	if err := ValidatePayload(normalized, payload); err != nil {
		t.Fatalf("ValidatePayload: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	fields := postFields()

	filled := ApplyDefaults(fields, map[string]any{"title": "x"})
	if filled["draft"] != false {
		t.Fatalf("expected draft default false, got %#v", filled["draft"])
	}

	kept := ApplyDefaults(fields, map[string]any{"draft": true})
	if kept["draft"] != true {
		t.Fatalf("expected explicit draft to be kept, got %#v", kept["draft"])
	}

	// The input payload must not be mutated.
	original := map[string]any{"title": "x"}
	ApplyDefaults(fields, original)
	if _, ok := original["draft"]; ok {
		t.Fatalf("expected original payload to be untouched")
	}
}

func TestDateFields(t *testing.T) {
	names := DateFields(postFields())
	if len(names) != 1 || names[0] != "date" {
		t.Fatalf("expected [date], got %#v", names)
	}
}

func TestValidateSchema_Invalid(t *testing.T) {
	err := ValidateSchema(map[string]any{"type": 12})
	if err == nil {
		t.Fatalf("expected compile error for malformed schema")
	}
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}
