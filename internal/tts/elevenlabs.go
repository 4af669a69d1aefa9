// Package tts synthesizes spoken audio for chat answers.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/hackathon-judge/internal/httputil"
)

const (
	// DefaultBaseURL is the ElevenLabs API root.
	DefaultBaseURL = "https://api.elevenlabs.io"
	// DefaultVoiceID is the "Rachel" voice.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	// DefaultModel is the ElevenLabs model used for synthesis.
	DefaultModel = "eleven_monolingual_v1"

	maxErrorBody = 512
)

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Generate(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabs calls the ElevenLabs text-to-speech REST API.
type ElevenLabs struct {
	BaseURL string
	APIKey  string
	VoiceID string
	Model   string
	Client  *http.Client
}

// NewElevenLabs creates a client with the default voice and model.
func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		VoiceID: DefaultVoiceID,
		Model:   DefaultModel,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Error is a non-success response from the API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("elevenlabs returned HTTP %d: %s", e.StatusCode, e.Body)
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Generate returns MPEG audio of text spoken by the configured voice.
func (e *ElevenLabs) Generate(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}
	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: e.Model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(e.BaseURL, "/"), e.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio, nil
}
