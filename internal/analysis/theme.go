package analysis

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/prompts"
	"github.com/jonathan/hackathon-judge/internal/schemas"
)

// ThemeMatcher picks which declared hackathon theme an idea belongs to.
type ThemeMatcher struct {
	llm  llm.Client
	tier llm.ModelTier
}

// NewThemeMatcher creates a ThemeMatcher backed by client.
func NewThemeMatcher(client llm.Client) *ThemeMatcher {
	return &ThemeMatcher{llm: client, tier: llm.TierLite}
}

// Match returns one of themes or schemas.NoTheme. ok is false when the model failed or
// answered outside the allowed set, in which case the project's theme should be left as is.
// With no declared themes the answer is schemas.NoTheme without a model call.
func (m *ThemeMatcher) Match(ctx context.Context, themes []string, idea string) (theme string, ok bool) {
	if len(themes) == 0 {
		return schemas.NoTheme, true
	}

	description, err := prompts.Render("market.json", "theme-match", map[string]string{
		"Themes": strings.Join(themes, ", "),
	})
	if err != nil {
		log.Printf("[MARKET] theme match prompt: %v", err)
		return "", false
	}
	prompt := llm.BuildExtractionPrompt(llm.ThemeMatchSchema(description), idea)

	raw, err := m.llm.Predict(ctx, prompt, m.tier, llm.ThemeMatchParams)
	if err != nil {
		log.Printf("[MARKET] theme match failed: %v", err)
		return "", false
	}

	doc, err := themeDocument(raw, themes)
	if err != nil {
		log.Printf("[MARKET] theme match output unreadable: %v", err)
		return "", false
	}
	theme, err = schemas.ValidateThemeMatch(doc, themes)
	if err != nil {
		log.Printf("[MARKET] theme match rejected %q: %v", strings.TrimSpace(raw), err)
		return "", false
	}
	return theme, true
}

// themeDocument turns model output into {"theme": ...}, accepting a bare theme string
// and restoring the declared spelling of a case-insensitive match.
func themeDocument(raw string, themes []string) (string, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		doc = map[string]any{"theme": strings.Trim(cleaned, " \t\n\"'.")}
	}
	if value, isString := doc["theme"].(string); isString {
		doc["theme"] = canonicalTheme(strings.TrimSpace(value), themes)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func canonicalTheme(value string, themes []string) string {
	if strings.EqualFold(value, schemas.NoTheme) {
		return schemas.NoTheme
	}
	for _, t := range themes {
		if strings.EqualFold(value, t) {
			return t
		}
	}
	return value
}
