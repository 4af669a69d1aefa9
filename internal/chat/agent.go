// Package chat answers judges' questions about a project in a running conversation.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/prompts"
	"github.com/jonathan/hackathon-judge/internal/tts"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// ProjectNotFoundMessage is answered when the project does not exist.
const ProjectNotFoundMessage = "Project not found."

// Store is the part of the project store the chat agent reads.
type Store interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetHackathon(ctx context.Context) (*types.Hackathon, error)
}

// Agent answers chat questions with the project's analysis as context.
type Agent struct {
	store  Store
	llm    llm.Client
	speech tts.Synthesizer
	tier   llm.ModelTier
}

// New creates an Agent. speech may be nil to disable audio.
func New(store Store, client llm.Client, speech tts.Synthesizer) *Agent {
	return &Agent{store: store, llm: client, speech: speech, tier: llm.TierAdvanced}
}

// Ask answers req. A closed credit gate, or no hackathon at all, returns the quota
// message without calling the model. Audio is best effort and nil when synthesis fails.
func (a *Agent) Ask(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	history := append([]types.ChatTurn{}, req.ChatHistory...)

	hackathon, err := a.store.GetHackathon(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hackathon: %w", err)
	}
	if hackathon == nil || !hackathon.IsAllowed {
		log.Printf("[CHAT] project_id=%s credit gate closed", req.ProjectID)
		return &types.ChatResponse{Answer: types.QuotaExceededMessage, ChatHistory: history}, nil
	}

	project, err := a.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return &types.ChatResponse{Answer: ProjectNotFoundMessage, ChatHistory: history}, nil
	}

	prompt, err := prompts.Render("chat.json", "judge", map[string]string{
		"ProjectDescription": project.ShortDescription,
		"Theme":              hackathon.Theme,
		"Technologies":       hackathon.TechnologyList(),
		"Analysis":           formatAnalysis(project),
		"History":            formatHistory(history),
		"Question":           req.Question,
	})
	if err != nil {
		return nil, err
	}

	answer, err := a.llm.GenerateContent(ctx, prompt, a.tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	history = append(history, types.ChatTurn{Input: req.Question, Output: answer})

	return &types.ChatResponse{
		Answer:      answer,
		ChatHistory: history,
		Audio:       a.synthesize(ctx, req.ProjectID, answer),
	}, nil
}

func (a *Agent) synthesize(ctx context.Context, projectID, text string) []byte {
	if a.speech == nil {
		return nil
	}
	audio, err := a.speech.Generate(ctx, text)
	if err != nil {
		log.Printf("[CHAT] project_id=%s audio generation failed: %v", projectID, err)
		return nil
	}
	return audio
}

func formatHistory(history []types.ChatTurn) string {
	if len(history) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&sb, "Human: %s\nAI: %s\n", turn.Input, turn.Output)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAnalysis(p *types.Project) string {
	var sb strings.Builder
	write := func(title string, qa *[]types.QA) {
		if qa == nil {
			return
		}
		fmt.Fprintf(&sb, "%s:\n", title)
		for _, pair := range *qa {
			if pair.Failed {
				continue
			}
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", pair.Question, pair.Answer)
		}
	}
	write("Market analysis", p.MarketAgentAnalysis)
	write("Code analysis", p.CodeAgentAnalysis)
	if sb.Len() == 0 {
		return "(analysis still running)"
	}
	return strings.TrimRight(sb.String(), "\n")
}
