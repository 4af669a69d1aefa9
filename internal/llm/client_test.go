package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("judge")}},
		}},
	}
	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Hello, judge", text)
}

func TestExtractTextFromResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "no content", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractTextFromResponse(tt.resp)
			assert.Error(t, err)
		})
	}
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), nil, "")
	assert.EqualError(t, err, "API key is required")
}

func TestGeminiClient_ModelAppliesParams(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), DefaultGeminiConfig(), "test-key")
	require.NoError(t, err)
	defer c.Close()

	model, err := c.model(TierLite, ThemeMatchParams)
	require.NoError(t, err)
	assert.Equal(t, "application/json", model.ResponseMIMEType)
	require.NotNil(t, model.TopK)
	assert.Equal(t, int32(40), *model.TopK)

	plain, err := c.model(TierLite, GenerationParams{Temperature: 0.1})
	require.NoError(t, err)
	assert.Empty(t, plain.ResponseMIMEType)
}
