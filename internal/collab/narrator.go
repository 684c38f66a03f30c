package collab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

const narratorSystemPrompt = `You are an SRE assistant. You receive a JSON snapshot of a
completed alert investigation: target, evidence, ranked hypotheses, triage decision,
scores, and classification. Write a short plain-prose narrative (max 6 sentences) for the
on-call responder. Only restate facts present in the snapshot; never invent evidence or
certainty the snapshot does not contain.`

// AnthropicNarrator implements Narrator using the Anthropic API. The API key
// is read from the ANTHROPIC_API_KEY environment variable.
type AnthropicNarrator struct {
	client    anthropic.Client
	model     string
	maxTokens int
	budget    time.Duration
}

// NewAnthropicNarrator creates a narrator with the configured model and
// per-call time budget.
func NewAnthropicNarrator(model string, maxTokens int, budget time.Duration) *AnthropicNarrator {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if budget <= 0 {
		budget = 20 * time.Second
	}
	return &AnthropicNarrator{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
		budget:    budget,
	}
}

// Name implements Narrator.Name.
func (n *AnthropicNarrator) Name() string {
	return "anthropic"
}

// Narrate sends the read-only snapshot to the model under the time budget and
// returns its narrative.
func (n *AnthropicNarrator) Narrate(ctx context.Context, snapshot []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.budget)
	defer cancel()

	resp, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(n.model),
		MaxTokens: int64(n.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: narratorSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(snapshot))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	narrative := strings.TrimSpace(sb.String())
	if narrative == "" {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return narrative, nil
}
