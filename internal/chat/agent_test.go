package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/llm/llmtest"
	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpeech struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSpeech) Generate(context.Context, string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

func setup(t *testing.T, h *types.Hackathon) (*store.MemoryStore, string) {
	t.Helper()
	s, err := store.NewMemoryStore()
	require.NoError(t, err)
	ctx := context.Background()
	if h != nil {
		require.NoError(t, s.SaveHackathon(ctx, h))
	}
	id, err := s.CreateProject(ctx, &types.Project{
		ShortDescription: "AI note-taking app",
		LongDescription:  "Transcribes meetings",
		GithubLink:       "https://github.com/example/notes",
	})
	require.NoError(t, err)
	_, err = s.UpdateAnalysis(ctx, id, store.AnalysisUpdate{Market: []types.QA{
		{Question: "Who is the target audience of this idea?", Answer: "Remote teams"},
		{Question: "What is the market size of this idea?", Answer: "timeout", Failed: true},
	}})
	require.NoError(t, err)
	return s, id
}

func TestAgent_AnswersAndExtendsHistory(t *testing.T) {
	s, id := setup(t, &types.Hackathon{Theme: "Productivity", Technologies: []string{"Go"}, IsAllowed: true})
	client := &llmtest.MockClient{
		GenerateContentFunc: func(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierAdvanced, tier)
			return " Solid market fit. ", nil
		},
	}
	speech := &fakeSpeech{audio: []byte("mp3")}
	a := New(s, client, speech)

	resp, err := a.Ask(context.Background(), types.ChatRequest{
		ProjectID:   id,
		Question:    "Is it viable?",
		ChatHistory: []types.ChatTurn{{Input: "Hi", Output: "Hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Solid market fit.", resp.Answer)
	assert.Equal(t, []types.ChatTurn{
		{Input: "Hi", Output: "Hello"},
		{Input: "Is it viable?", Output: "Solid market fit."},
	}, resp.ChatHistory)
	assert.Equal(t, []byte("mp3"), resp.Audio)

	prompt := client.Prompts()[0]
	assert.Contains(t, prompt, "Project Description: AI note-taking app")
	assert.Contains(t, prompt, "Hackathon Theme: Productivity")
	assert.Contains(t, prompt, "Required Technologies: Go")
	assert.Contains(t, prompt, "A: Remote teams")
	assert.NotContains(t, prompt, "timeout")
	assert.Contains(t, prompt, "Human: Hi\nAI: Hello")
	assert.Contains(t, prompt, "Human: Is it viable?")
}

func TestAgent_QuotaGateSkipsGeneration(t *testing.T) {
	for name, h := range map[string]*types.Hackathon{
		"closed":       {IsAllowed: false},
		"no hackathon": nil,
	} {
		t.Run(name, func(t *testing.T) {
			s, id := setup(t, h)
			client := &llmtest.MockClient{}
			speech := &fakeSpeech{}
			history := []types.ChatTurn{{Input: "a", Output: "b"}}

			resp, err := New(s, client, speech).Ask(context.Background(), types.ChatRequest{
				ProjectID: id, Question: "Score it", ChatHistory: history,
			})
			require.NoError(t, err)
			assert.Equal(t, types.QuotaExceededMessage, resp.Answer)
			assert.Equal(t, history, resp.ChatHistory)
			assert.Nil(t, resp.Audio)
			assert.Zero(t, client.Calls())
			assert.Zero(t, speech.calls)
		})
	}
}

func TestAgent_ProjectNotFound(t *testing.T) {
	s, _ := setup(t, &types.Hackathon{IsAllowed: true})
	client := &llmtest.MockClient{}

	resp, err := New(s, client, nil).Ask(context.Background(), types.ChatRequest{
		ProjectID: "7f6d2c55-1f55-4a8e-9a43-5c7f0e1e2b11", Question: "Score it",
	})
	require.NoError(t, err)
	assert.Equal(t, ProjectNotFoundMessage, resp.Answer)
	assert.Empty(t, resp.ChatHistory)
	assert.Zero(t, client.Calls())
}

func TestAgent_AudioFailureIsNotFatal(t *testing.T) {
	s, id := setup(t, &types.Hackathon{IsAllowed: true})
	client := &llmtest.MockClient{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) { return "ok", nil },
	}

	resp, err := New(s, client, &fakeSpeech{err: errors.New("401")}).Ask(context.Background(), types.ChatRequest{
		ProjectID: id, Question: "q",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.Nil(t, resp.Audio)
}

func TestAgent_GenerationFailure(t *testing.T) {
	s, id := setup(t, &types.Hackathon{IsAllowed: true})
	client := &llmtest.MockClient{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("model overloaded")
		},
	}
	speech := &fakeSpeech{}

	_, err := New(s, client, speech).Ask(context.Background(), types.ChatRequest{ProjectID: id, Question: "q"})
	require.Error(t, err)
	assert.Zero(t, speech.calls)
}

func TestAgent_InvalidRequest(t *testing.T) {
	s, _ := setup(t, nil)
	_, err := New(s, &llmtest.MockClient{}, nil).Ask(context.Background(), types.ChatRequest{ProjectID: "bad", Question: "q"})
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestFormatAnalysis_NoAnalysisYet(t *testing.T) {
	assert.Equal(t, "(analysis still running)", formatAnalysis(&types.Project{}))
}
