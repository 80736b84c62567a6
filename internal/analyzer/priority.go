package analyzer

import "strings"

// Priority tiers for interactive elements. Advisory ranking only: the
// index-sorted order of the envelope is never changed.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
)

// importantKeywords promote elements that usually gate a workflow.
var importantKeywords = []string{
	"button", "submit", "login", "search", "menu", "nav", "form",
}

// priorityFor scores one highlighted element. Keyword matches in the
// visible text win, then form controls, then links with text.
func priorityFor(rec *NodeRecord, text string) string {
	lower := strings.ToLower(text)
	for _, keyword := range importantKeywords {
		if strings.Contains(lower, keyword) {
			return PriorityCritical
		}
	}

	switch rec.TagName {
	case "button", "input", "select", "textarea":
		return PriorityCritical
	case "a":
		if text != "" {
			return PriorityHigh
		}
		return PriorityNormal
	}

	if rec.IsInteractive {
		return PriorityHigh
	}
	return PriorityNormal
}
