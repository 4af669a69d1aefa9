// Package agent runs a self-ask-with-search loop: the model asks follow up questions,
// a search tool answers them, and the loop ends when the model states a final answer.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/prompts"
	"github.com/jonathan/hackathon-judge/internal/websearch"
)

const (
	followUpPrefix     = "Follow up:"
	intermediatePrefix = "Intermediate answer:"
	finalAnswerPrefix  = "So the final answer is:"
)

// DefaultMaxSteps bounds the number of follow up searches per run.
const DefaultMaxSteps = 5

// SelfAsk answers questions by alternating model calls and search tool calls.
type SelfAsk struct {
	llm      llm.Client
	tool     websearch.Tool
	tier     llm.ModelTier
	maxSteps int
}

// New creates a SelfAsk agent over client and tool.
func New(client llm.Client, tool websearch.Tool) *SelfAsk {
	return &SelfAsk{llm: client, tool: tool, tier: llm.TierLite, maxSteps: DefaultMaxSteps}
}

// WithMaxSteps returns a copy of the agent with a different step bound.
func (a *SelfAsk) WithMaxSteps(n int) *SelfAsk {
	cp := *a
	cp.maxSteps = max(n, 1)
	return &cp
}

// Run answers question. When the step bound is reached without a final answer,
// the last model output is returned.
func (a *SelfAsk) Run(ctx context.Context, question string) (string, error) {
	scratchpad, err := prompts.Render("agent.json", "self-ask", map[string]string{"Question": question})
	if err != nil {
		return "", err
	}

	var last string
	for step := 0; step <= a.maxSteps; step++ {
		out, err := a.llm.GenerateContent(ctx, scratchpad, a.tier)
		if err != nil {
			return "", fmt.Errorf("agent step %d: %w", step, err)
		}
		out = truncateAtIntermediate(out)
		last = strings.TrimSpace(out)

		if answer, ok := finalAnswer(out); ok {
			return answer, nil
		}

		followUp, ok := lastFollowUp(out)
		if !ok {
			// The model answered without the expected markers.
			return last, nil
		}
		if step == a.maxSteps {
			break
		}

		observation, err := a.tool.Run(ctx, followUp)
		if err != nil {
			return "", fmt.Errorf("agent search %q: %w", followUp, err)
		}
		log.Printf("[AGENT] %s: %q", a.tool.Name(), followUp)

		scratchpad += " " + strings.TrimSpace(out) + "\n" + intermediatePrefix + " " + observation + "\n"
	}

	log.Printf("[AGENT] step limit %d reached without a final answer", a.maxSteps)
	return last, nil
}

// truncateAtIntermediate drops anything the model wrote in place of the search tool.
func truncateAtIntermediate(out string) string {
	if idx := strings.Index(out, intermediatePrefix); idx >= 0 {
		return out[:idx]
	}
	return out
}

func finalAnswer(out string) (string, bool) {
	idx := strings.LastIndex(out, finalAnswerPrefix)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(out[idx+len(finalAnswerPrefix):]), true
}

func lastFollowUp(out string) (string, bool) {
	idx := strings.LastIndex(out, followUpPrefix)
	if idx < 0 {
		return "", false
	}
	q := out[idx+len(followUpPrefix):]
	if nl := strings.IndexByte(q, '\n'); nl >= 0 {
		q = q[:nl]
	}
	q = strings.TrimSpace(q)
	return q, q != ""
}
