package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/llm/llmtest"
	"github.com/jonathan/hackathon-judge/internal/schemas"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func themeClient(output string) *llmtest.MockClient {
	return &llmtest.MockClient{
		PredictFunc: func(_ context.Context, _ string, _ llm.ModelTier, params llm.GenerationParams) (string, error) {
			if params != llm.ThemeMatchParams {
				return "", errors.New("unexpected generation params")
			}
			return output, nil
		},
	}
}

func TestMarketWorker_WritesAnswersAndTheme(t *testing.T) {
	s := newStore(t, &types.Hackathon{Theme: "Productivity, Health", IsAllowed: true})
	id := seedProject(t, s, "")

	agent := &fakeAgent{RunFunc: func(_ context.Context, prompt string) (string, error) {
		for i, q := range MarketQuestions {
			if strings.Contains(prompt, q) {
				return "answer " + string(rune('A'+i)), nil
			}
		}
		return "", errors.New("unknown question")
	}}
	client := themeClient(`{"theme": "Productivity"}`)
	w := NewMarketWorker(s, agent, NewThemeMatcher(client), testOptions())

	report, err := w.Run(context.Background(), id, "AI note-taking app")
	require.NoError(t, err)
	assert.Equal(t, StageDone, report.Stage)
	assert.Equal(t, "Productivity", report.Theme)

	p := getProject(t, s, id)
	assert.Equal(t, "Productivity", p.Theme)
	require.NotNil(t, p.MarketAgentAnalysis)
	require.Len(t, *p.MarketAgentAnalysis, len(MarketQuestions))
	for i, qa := range *p.MarketAgentAnalysis {
		assert.Equal(t, MarketQuestions[i], qa.Question)
		assert.Equal(t, "answer "+string(rune('A'+i)), qa.Answer)
		assert.False(t, qa.Failed)
	}
	assert.Nil(t, p.CodeAgentAnalysis)
	assert.Equal(t, int64(len(MarketQuestions)), agent.calls.Load())
}

func TestMarketWorker_ThemeStaysWithinDeclaredSet(t *testing.T) {
	outputs := []string{
		`{"theme": "Health"}`,
		"```json\n{\"theme\": \"productivity\"}\n```",
		"None",
		`"Health"`,
		`{"theme": "none"}`,
	}
	allowed := []string{"Productivity", "Health", "None"}

	for _, out := range outputs {
		t.Run(out, func(t *testing.T) {
			s := newStore(t, &types.Hackathon{Theme: "Productivity, Health", IsAllowed: true})
			id := seedProject(t, s, "")
			w := NewMarketWorker(s, &fakeAgent{}, NewThemeMatcher(themeClient(out)), testOptions())

			_, err := w.Run(context.Background(), id, "AI note-taking app")
			require.NoError(t, err)
			assert.Contains(t, allowed, getProject(t, s, id).Theme)
		})
	}
}

func TestMarketWorker_InvalidThemeLeavesThemeUnchanged(t *testing.T) {
	for _, out := range []string{`{"theme": "Finance"}`, `{"topic": "Health"}`, "I think it is about wellness"} {
		t.Run(out, func(t *testing.T) {
			s := newStore(t, &types.Hackathon{Theme: "Productivity, Health", IsAllowed: true})
			id := seedProject(t, s, "Original")
			w := NewMarketWorker(s, &fakeAgent{}, NewThemeMatcher(themeClient(out)), testOptions())

			report, err := w.Run(context.Background(), id, "AI note-taking app")
			require.NoError(t, err)
			assert.Empty(t, report.Theme)

			p := getProject(t, s, id)
			assert.Equal(t, "Original", p.Theme)
			assert.NotNil(t, p.MarketAgentAnalysis)
		})
	}
}

func TestMarketWorker_ThemeMatchErrorLeavesThemeUnchanged(t *testing.T) {
	s := newStore(t, &types.Hackathon{Theme: "Productivity", IsAllowed: true})
	id := seedProject(t, s, "Original")
	client := &llmtest.MockClient{
		PredictFunc: func(context.Context, string, llm.ModelTier, llm.GenerationParams) (string, error) {
			return "", errors.New("quota")
		},
	}
	w := NewMarketWorker(s, &fakeAgent{}, NewThemeMatcher(client), testOptions())

	_, err := w.Run(context.Background(), id, "AI note-taking app")
	require.NoError(t, err)
	assert.Equal(t, "Original", getProject(t, s, id).Theme)
}

func TestMarketWorker_PartialFailureIsRecorded(t *testing.T) {
	s := newStore(t, nil)
	id := seedProject(t, s, "")
	agent := &fakeAgent{RunFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, MarketQuestions[2]) {
			return "", errors.New("search unavailable")
		}
		return "fine", nil
	}}
	w := NewMarketWorker(s, agent, NewThemeMatcher(&llmtest.MockClient{}), testOptions())

	report, err := w.Run(context.Background(), id, "AI note-taking app")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failures())

	qa := *getProject(t, s, id).MarketAgentAnalysis
	require.Len(t, qa, len(MarketQuestions))
	assert.True(t, qa[2].Failed)
	assert.Contains(t, qa[2].Answer, "search unavailable")
	assert.Equal(t, MarketQuestions[2], qa[2].Question)
	assert.False(t, qa[0].Failed)
	assert.Equal(t, "fine", qa[4].Answer)
}

func TestMarketWorker_AllQuestionsFailingFailsRun(t *testing.T) {
	s := newStore(t, nil)
	id := seedProject(t, s, "Original")
	agent := &fakeAgent{RunFunc: func(context.Context, string) (string, error) {
		return "", errors.New("model down")
	}}
	client := &llmtest.MockClient{}
	w := NewMarketWorker(s, agent, NewThemeMatcher(client), testOptions())

	report, err := w.Run(context.Background(), id, "AI note-taking app")
	require.Error(t, err)
	assert.Equal(t, StageFailed, report.Stage)
	assert.Equal(t, err, report.Err)

	p := getProject(t, s, id)
	assert.Nil(t, p.MarketAgentAnalysis)
	assert.Equal(t, "Original", p.Theme)
	assert.Zero(t, client.Calls())
}

func TestMarketWorker_QuotaGateSkipsPaidCalls(t *testing.T) {
	s := newStore(t, &types.Hackathon{Theme: "Productivity, Health", IsAllowed: false})
	id := seedProject(t, s, "Original")
	agent := &fakeAgent{}
	client := &llmtest.MockClient{}
	w := NewMarketWorker(s, agent, NewThemeMatcher(client), testOptions())

	report, err := w.Run(context.Background(), id, "AI note-taking app")
	require.NoError(t, err)
	assert.True(t, report.QuotaExceeded)
	assert.Equal(t, StageDone, report.Stage)
	assert.Zero(t, agent.calls.Load())
	assert.Zero(t, client.Calls())

	p := getProject(t, s, id)
	assert.Equal(t, "Original", p.Theme)
	require.NotNil(t, p.MarketAgentAnalysis)
	for _, qa := range *p.MarketAgentAnalysis {
		assert.Equal(t, types.QuotaExceededMessage, qa.Answer)
	}
}

func TestMarketWorker_MissingProject(t *testing.T) {
	s := newStore(t, nil)
	agent := &fakeAgent{}
	w := NewMarketWorker(s, agent, NewThemeMatcher(&llmtest.MockClient{}), testOptions())

	report, err := w.Run(context.Background(), "7f6d2c55-1f55-4a8e-9a43-5c7f0e1e2b11", "idea")
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, StageFailed, report.Stage)
	assert.Zero(t, agent.calls.Load())
}

func TestMarketWorker_InvalidProjectID(t *testing.T) {
	w := NewMarketWorker(newStore(t, nil), &fakeAgent{}, NewThemeMatcher(&llmtest.MockClient{}), testOptions())

	_, err := w.Run(context.Background(), "not-a-uuid", "idea")
	var validation *types.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestMarketWorker_UnmatchedWriteFails(t *testing.T) {
	s := newStore(t, nil)
	id := seedProject(t, s, "")
	w := NewMarketWorker(unmatchedStore{s}, &fakeAgent{}, NewThemeMatcher(&llmtest.MockClient{}), testOptions())

	report, err := w.Run(context.Background(), id, "idea")
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, StageFailed, report.Stage)
}

func TestMarketWorker_RunTimeoutFails(t *testing.T) {
	s := newStore(t, nil)
	id := seedProject(t, s, "")
	agent := &fakeAgent{RunFunc: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	opts := Options{RunTimeout: 50 * time.Millisecond, CallTimeout: time.Minute, Concurrency: 5}
	w := NewMarketWorker(s, agent, NewThemeMatcher(&llmtest.MockClient{}), opts)

	report, err := w.Run(context.Background(), id, "idea")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StageFailed, report.Stage)
	assert.Nil(t, getProject(t, s, id).MarketAgentAnalysis)
}

func TestMarketWorker_EmptyIdeaUsesShortDescription(t *testing.T) {
	s := newStore(t, nil)
	id := seedProject(t, s, "")
	agent := &fakeAgent{RunFunc: func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "IDEA: AI note-taking app") {
			return "", errors.New("idea missing from prompt")
		}
		return "ok", nil
	}}
	w := NewMarketWorker(s, agent, NewThemeMatcher(&llmtest.MockClient{}), testOptions())

	report, err := w.Run(context.Background(), id, "  ")
	require.NoError(t, err)
	assert.Zero(t, report.Failures())
}

func TestThemeMatcher_NoMatchingIdeaYieldsNone(t *testing.T) {
	themes := []string{"Productivity", "Health"}
	for _, out := range []string{"None", `{"theme": "None"}`, "none.", "```\n{\"theme\":\"NONE\"}\n```"} {
		m := NewThemeMatcher(themeClient(out))
		theme, ok := m.Match(context.Background(), themes, "A blockchain for pet rocks")
		assert.True(t, ok, out)
		assert.Equal(t, schemas.NoTheme, theme, out)
	}
}

func TestThemeMatcher_PromptListsThemesAndIdea(t *testing.T) {
	client := themeClient(`{"theme": "Health"}`)
	m := NewThemeMatcher(client)

	theme, ok := m.Match(context.Background(), []string{"Productivity", "Health"}, "Sleep tracker")
	require.True(t, ok)
	assert.Equal(t, "Health", theme)

	prompt := client.Prompts()[0]
	assert.Contains(t, prompt, "Themes : Productivity, Health")
	assert.Contains(t, prompt, "Sleep tracker")
}

func TestThemeMatcher_NoDeclaredThemes(t *testing.T) {
	client := &llmtest.MockClient{}
	theme, ok := NewThemeMatcher(client).Match(context.Background(), nil, "anything")
	assert.True(t, ok)
	assert.Equal(t, schemas.NoTheme, theme)
	assert.Zero(t, client.Calls())
}
