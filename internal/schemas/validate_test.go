package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	err := ValidateJSONString(schema, `{"name": "judge"}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	err := ValidateJSONString(schema, `{"name": 42}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "name", validationErr.Errors[0].Field)
}

func TestValidateJSONString_MalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{not json`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "theme", Message: "must be one of the following"},
		{Field: "(root)", Message: "theme is required"},
	}}
	msg := err.Error()
	assert.Contains(t, msg, "1. theme: must be one of the following")
	assert.Contains(t, msg, "2. (root): theme is required")
}

func TestValidateThemeMatch(t *testing.T) {
	themes := []string{"Productivity", "Health"}

	tests := []struct {
		name    string
		doc     string
		want    string
		wantErr bool
	}{
		{name: "declared theme", doc: `{"theme": "Health"}`, want: "Health"},
		{name: "none marker", doc: `{"theme": "None"}`, want: NoTheme},
		{name: "undeclared theme", doc: `{"theme": "Finance"}`, wantErr: true},
		{name: "case differs", doc: `{"theme": "health"}`, wantErr: true},
		{name: "missing field", doc: `{}`, wantErr: true},
		{name: "wrong type", doc: `{"theme": ["Health"]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateThemeMatch(tt.doc, themes)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateThemeMatch_NoDeclaredThemes(t *testing.T) {
	got, err := ValidateThemeMatch(`{"theme": "None"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, NoTheme, got)

	_, err = ValidateThemeMatch(`{"theme": "Health"}`, nil)
	assert.Error(t, err)
}
