package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/brantansp/taf-dom-analyzer/internal/analyzer"
)

// ClaudeProvider implements Provider using the Anthropic API.
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// NewClaudeProvider creates a Claude provider. Reads the API key from
// DOMSCAN_ANTHROPIC_KEY or ANTHROPIC_API_KEY.
func NewClaudeProvider(model string) (*ClaudeProvider, error) {
	apiKey := os.Getenv("DOMSCAN_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("DOMSCAN_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
	}, nil
}

// SuggestElement asks Claude to pick the element matching the instruction.
func (p *ClaudeProvider) SuggestElement(ctx context.Context, result *analyzer.Result, instruction string) (*Suggestion, error) {
	userPrompt, err := buildUserPrompt(result, instruction)
	if err != nil {
		return nil, fmt.Errorf("ai: build prompt: %w", err)
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: claude request: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("ai: empty response from claude")
	}

	return parseSuggestionJSON(text)
}
