package schema_test

import (
	"testing"

	"github.com/ssonin/nvstech/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(ve *schema.ValidationError) []string {
	out := make([]string, 0, len(ve.Violations))
	for _, v := range ve.Violations {
		out = append(out, v.Field)
	}
	return out
}

func TestValidateClient_Valid(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	payload, err := v.ValidateClient([]byte(`{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"description": "mathematician"
	}`))

	require.NoError(t, err)
	assert.Equal(t, "Ada", payload["first_name"])
	assert.Equal(t, "ada@example.com", payload["email"])
}

func TestValidateClient_ReportsAllViolations(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	// Empty first_name and a malformed email are both wrong; both must be
	// reported in one pass.
	_, err = v.ValidateClient([]byte(`{
		"first_name": "",
		"last_name": "Lovelace",
		"email": "not-an-email"
	}`))

	require.Error(t, err)
	ve, ok := schema.IsValidationError(err)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(ve.Violations), 2)
	assert.Contains(t, fields(ve), "first_name")
	assert.Contains(t, fields(ve), "email")
}

func TestValidateClient_MissingRequiredFields(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	_, err = v.ValidateClient([]byte(`{"description": "no name"}`))

	require.Error(t, err)
	ve, ok := schema.IsValidationError(err)
	require.True(t, ok)
	require.NotEmpty(t, ve.Violations)
	assert.Contains(t, ve.Error(), "first_name")
	assert.Contains(t, ve.Error(), "last_name")
	assert.Contains(t, ve.Error(), "email")
}

func TestValidateClient_Deterministic(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	payload := []byte(`{"first_name": "", "last_name": "", "email": "x"}`)

	_, first := v.ValidateClient(payload)
	_, second := v.ValidateClient(payload)

	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}

func TestValidateDocument_Valid(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	payload, err := v.ValidateDocument([]byte(`{"title": "Notes", "content": "Some text"}`))

	require.NoError(t, err)
	assert.Equal(t, "Notes", payload["title"])
}

func TestValidateDocument_EmptyContent(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	_, err = v.ValidateDocument([]byte(`{"title": "Notes", "content": ""}`))

	require.Error(t, err)
	ve, ok := schema.IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, fields(ve), "content")
}

func TestValidate_MalformedJSON(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	_, err = v.ValidateDocument([]byte(`{"title": `))

	require.Error(t, err)
	ve, ok := schema.IsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "invalid JSON payload", ve.Violations[0].Constraint)
}

func TestValidate_NonObjectPayload(t *testing.T) {
	v, err := schema.NewValidator()
	require.NoError(t, err)

	_, err = v.ValidateDocument([]byte(`["not", "an", "object"]`))

	require.Error(t, err)
	_, ok := schema.IsValidationError(err)
	require.True(t, ok)
}
