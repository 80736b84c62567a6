package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brantansp/taf-dom-analyzer/internal/analyzer"
)

const systemPrompt = `You are a web page interaction assistant. You are given the
interactive elements of a page, each with a numeric highlight index, tag name,
CSS selector, visible text and a short description. The user gives you an
instruction in plain language.

Pick the single element that best satisfies the instruction and respond with
ONLY a JSON object, no markdown fences and no commentary:

{"index": <highlight index>, "action": "<click|fill|select|none>", "reason": "<one short sentence>"}

If no element fits, use index -1 and action "none".`

// buildUserPrompt renders the interactive elements and the instruction
// into the user message.
func buildUserPrompt(result *analyzer.Result, instruction string) (string, error) {
	if result == nil || len(result.InteractiveElements) == 0 {
		return "", fmt.Errorf("no interactive elements to choose from")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s (%s)\n\nInteractive elements:\n", result.Title, result.URL)
	for _, el := range result.InteractiveElements {
		fmt.Fprintf(&b, "[%d] <%s> selector=%q", el.HighlightIndex, el.TagName, el.Selector)
		if el.Text != "" {
			fmt.Fprintf(&b, " text=%q", el.Text)
		}
		if el.Description != "" {
			fmt.Fprintf(&b, " (%s)", el.Description)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nInstruction: %s\n", instruction)
	return b.String(), nil
}

// parseSuggestionJSON extracts the first balanced JSON object from the
// model's response and decodes it. Models sometimes wrap the object in
// markdown fences or prose.
func parseSuggestionJSON(text string) (*Suggestion, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("ai: no JSON object in response: %q", truncate(text, 120))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					var s Suggestion
					if err := json.Unmarshal([]byte(text[start:i+1]), &s); err != nil {
						return nil, fmt.Errorf("ai: decode suggestion: %w", err)
					}
					return &s, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("ai: unbalanced JSON object in response: %q", truncate(text, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
