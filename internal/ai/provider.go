// Package ai suggests which highlighted element satisfies a natural
// language instruction, using the analysis envelope as grounding.
package ai

import (
	"context"
	"fmt"

	"github.com/brantansp/taf-dom-analyzer/internal/analyzer"
)

// Suggestion is the model's pick: a highlight index plus the intended
// action and a short justification.
type Suggestion struct {
	Index  int    `json:"index"`
	Action string `json:"action"` // click, fill, select, none
	Reason string `json:"reason"`
}

// Provider defines the interface for element suggestion.
type Provider interface {
	SuggestElement(ctx context.Context, result *analyzer.Result, instruction string) (*Suggestion, error)
}

// NewProvider creates a provider by name.
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}
