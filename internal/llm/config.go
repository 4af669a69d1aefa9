// Package llm provides the generative model and embedding collaborators used by the analysis workers,
// the chat agent and semantic search.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short constrained answers: theme matching, agent steps
	TierLite ModelTier = "lite"
	// TierStandard is for question answering over retrieved context
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the judge chat
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultEmbeddingModel is the Gemini embedding model used for search and code retrieval
const DefaultEmbeddingModel = "text-embedding-004"

// Config holds the model configuration for the application
type Config struct {
	Provider       Provider
	Models         map[ModelTier]string
	EmbeddingModel string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		EmbeddingModel: DefaultEmbeddingModel,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:       c.Provider,
		Models:         make(map[ModelTier]string),
		EmbeddingModel: c.EmbeddingModel,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	if model != "" {
		newConfig.Models[tier] = model
	}
	return newConfig
}

// GenerationParams controls sampling for a single Predict call.
// Zero MaxOutputTokens, TopP and TopK leave the provider default in place.
// JSON asks the model for an application/json response.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int32
	TopP            float32
	TopK            int32
	JSON            bool
}

// ThemeMatchParams are the sampling parameters used for theme matching.
var ThemeMatchParams = GenerationParams{
	Temperature:     0.2,
	MaxOutputTokens: 1000,
	TopP:            0.8,
	TopK:            40,
	JSON:            true,
}
