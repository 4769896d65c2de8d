// Package schema validates raw request payloads against the JSON schemas
// the API accepts, reporting every violated constraint at once.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const clientSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"first_name": {"type": "string", "minLength": 1},
		"last_name": {"type": "string", "minLength": 1},
		"email": {
			"type": "string",
			"minLength": 1,
			"pattern": "^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\\.[a-zA-Z]{2,}$"
		},
		"description": {"type": "string"}
	},
	"required": ["first_name", "last_name", "email"]
}`

const documentSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"content": {"type": "string", "minLength": 1}
	},
	"required": ["title", "content"]
}`

// Violation is one failed constraint, addressed by field so callers can
// report all problems in a single response.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// ValidationError carries the complete list of violations for one payload.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Constraint)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Constraint))
	}
	return strings.Join(parts, "; ")
}

func IsValidationError(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}

// Validator holds the compiled schemas. Validation is pure: the same input
// always yields the same outcome and nothing outside the call is touched.
type Validator struct {
	client   *jsonschema.Schema
	document *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("client.json", strings.NewReader(clientSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add client schema: %w", err)
	}
	if err := compiler.AddResource("document.json", strings.NewReader(documentSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add document schema: %w", err)
	}

	clientSchema, err := compiler.Compile("client.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile client schema: %w", err)
	}
	documentSchema, err := compiler.Compile("document.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}

	return &Validator{client: clientSchema, document: documentSchema}, nil
}

// ValidateClient checks a raw client payload and returns the decoded
// document on success.
func (v *Validator) ValidateClient(raw []byte) (map[string]any, error) {
	return validate(v.client, raw)
}

// ValidateDocument checks a raw document payload and returns the decoded
// document on success.
func (v *Validator) ValidateDocument(raw []byte) (map[string]any, error) {
	return validate(v.document, raw)
}

func validate(schema *jsonschema.Schema, raw []byte) (map[string]any, error) {
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, &ValidationError{Violations: []Violation{
			{Field: "", Constraint: "invalid JSON payload"},
		}}
	}

	object, ok := payload.(map[string]any)
	if !ok {
		return nil, &ValidationError{Violations: []Violation{
			{Field: "", Constraint: "payload must be a JSON object"},
		}}
	}

	if err := schema.Validate(payload); err != nil {
		var ve *jsonschema.ValidationError
		if !isSchemaError(err, &ve) {
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
		return nil, &ValidationError{Violations: collectViolations(ve)}
	}

	return object, nil
}

func isSchemaError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// collectViolations flattens the cause tree into leaf violations so every
// failed constraint is reported, not just the first.
func collectViolations(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{
			Field:      fieldFromLocation(ve.InstanceLocation),
			Constraint: ve.Message,
		}}
	}

	var violations []Violation
	for _, cause := range ve.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

func fieldFromLocation(location string) string {
	return strings.TrimPrefix(location, "/")
}
