// Package schemas provides JSON Schema validation for structured model output.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// NoTheme is the marker a theme match returns when no declared theme fits.
const NoTheme = "None"

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// ThemeMatchSchema returns a JSON Schema for {"theme": ...} whose value must be one of
// themes or NoTheme.
func ThemeMatchSchema(themes []string) (string, error) {
	allowed := make([]string, 0, len(themes)+1)
	allowed = append(allowed, themes...)
	allowed = append(allowed, NoTheme)

	schema := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []string{"theme"},
		"properties": map[string]any{
			"theme": map[string]any{
				"type": "string",
				"enum": allowed,
			},
		},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to build theme schema: %w", err)
	}
	return string(b), nil
}

// ValidateThemeMatch checks a theme match document against the declared themes and
// returns the matched value.
func ValidateThemeMatch(jsonContent string, themes []string) (string, error) {
	schema, err := ThemeMatchSchema(themes)
	if err != nil {
		return "", err
	}
	if err := ValidateJSONString(schema, jsonContent); err != nil {
		return "", err
	}

	var doc struct {
		Theme string `json:"theme"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &doc); err != nil {
		return "", fmt.Errorf("failed to decode theme match: %w", err)
	}
	return doc.Theme, nil
}
