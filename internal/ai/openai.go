package ai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brantansp/taf-dom-analyzer/internal/analyzer"
)

// OpenAIProvider implements Provider using the OpenAI API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. Reads the API key from
// DOMSCAN_OPENAI_KEY or OPENAI_API_KEY.
func NewOpenAIProvider(model string) (*OpenAIProvider, error) {
	apiKey := os.Getenv("DOMSCAN_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("DOMSCAN_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// SuggestElement asks the model to pick the element matching the instruction.
func (p *OpenAIProvider) SuggestElement(ctx context.Context, result *analyzer.Result, instruction string) (*Suggestion, error) {
	userPrompt, err := buildUserPrompt(result, instruction)
	if err != nil {
		return nil, fmt.Errorf("ai: build prompt: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: 1024,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ai: empty response from openai")
	}

	return parseSuggestionJSON(resp.Choices[0].Message.Content)
}
