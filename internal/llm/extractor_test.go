package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt_ThemeMatch(t *testing.T) {
	schema := ThemeMatchSchema("Themes : Productivity, Health")
	prompt := BuildExtractionPrompt(schema, "AI note-taking app")

	assert.Equal(t, "ThemeMatch", schema.Name)
	assert.Contains(t, prompt, "Themes : Productivity, Health")
	assert.Contains(t, prompt, `"theme": "string" (required)`)
	assert.Contains(t, prompt, "AI note-taking app")
	assert.Contains(t, prompt, "Return ONLY valid JSON")
}

func TestBuildExtractionPrompt_DefaultTypeHint(t *testing.T) {
	schema := ExtractionSchema{
		Description: "desc",
		Fields:      []SchemaField{{Name: "a"}, {Name: "b", Type: "[\"string\"]"}},
	}
	prompt := BuildExtractionPrompt(schema, "input")

	assert.Contains(t, prompt, "\"a\": string,\n")
	assert.Contains(t, prompt, "\"b\": [\"string\"]\n")
}
