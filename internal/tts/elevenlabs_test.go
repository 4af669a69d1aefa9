package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/hackathon-judge/internal/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *ElevenLabs {
	c := NewElevenLabs("secret")
	c.BaseURL = url
	return c
}

func TestElevenLabs_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))

		var body synthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Strong idea.", body.Text)
		assert.Equal(t, DefaultModel, body.ModelID)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	audio, err := newTestClient(srv.URL).Generate(context.Background(), "Strong idea.")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), audio)
}

func TestElevenLabs_RetriesRateLimit(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = orig }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	audio, err := newTestClient(srv.URL).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), audio)
	assert.Equal(t, int32(2), calls.Load())
}

func TestElevenLabs_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "hello")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid api key")
}

func TestElevenLabs_EmptyText(t *testing.T) {
	_, err := NewElevenLabs("k").Generate(context.Background(), "  ")
	assert.Error(t, err)
}
