package analyzer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// maxTextLength caps recursive text extraction per element.
const maxTextLength = 100

// assemble turns the flat map into the output envelope: highlighted
// records sorted by index, each with extracted text, a description and a
// best-effort CSS selector.
func (r *run) assemble(rootID string) *Result {
	doc := &r.snap.Documents[0]
	result := &Result{
		RootID:        rootID,
		Map:           r.nodes,
		TotalElements: len(r.nodes),
		Timestamp:     now().UnixMilli(),
		URL:           doc.URL,
		Title:         doc.Title,
	}

	var highlighted []*NodeRecord
	for _, rec := range r.nodes {
		if rec.HighlightIndex != nil {
			highlighted = append(highlighted, rec)
		}
	}
	sort.Slice(highlighted, func(i, j int) bool {
		return *highlighted[i].HighlightIndex < *highlighted[j].HighlightIndex
	})
	result.HighlightedElements = len(highlighted)

	sel := newSelectorIndex(r.nodes, r.logger)
	for _, rec := range highlighted {
		text := r.extractText(rec)
		el := InteractiveElement{
			HighlightIndex: *rec.HighlightIndex,
			ID:             rec.ID,
			TagName:        rec.TagName,
			XPath:          rec.XPath,
			Selector:       sel.selectorFor(rec),
			Text:           text,
			Description:    describe(rec, text),
		}
		if r.settings.PrioritizeByImportance {
			el.Priority = priorityFor(rec, text)
		}
		result.InteractiveElements = append(result.InteractiveElements, el)
	}

	return result
}

// extractText concatenates the visible descendant text of a record,
// depth-first, capped at maxTextLength characters.
func (r *run) extractText(rec *NodeRecord) string {
	var parts []string
	length := 0

	var walk func(rec *NodeRecord) bool
	walk = func(rec *NodeRecord) bool {
		if rec.TagName == "#text" {
			if rec.IsVisible && rec.Text != "" {
				parts = append(parts, rec.Text)
				length += utf8.RuneCountInString(rec.Text)
			}
			return length < maxTextLength
		}
		for _, childID := range rec.Children {
			child, ok := r.nodes[childID]
			if !ok {
				continue
			}
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(rec)

	text := strings.Join(parts, " ")
	if utf8.RuneCountInString(text) > maxTextLength {
		runes := []rune(text)
		text = string(runes[:maxTextLength])
	}
	return text
}

// describe builds the human-readable summary: tag name followed by the
// fixed attribute sequence, each appended only when present.
func describe(rec *NodeRecord, text string) string {
	parts := []string{rec.TagName}
	for _, key := range []string{"type", "placeholder", "value", "href", "title", "alt"} {
		if v, ok := rec.Attributes[key]; ok && v != "" {
			parts = append(parts, v)
		}
	}
	if text != "" {
		parts = append(parts, text)
	}
	for _, key := range []string{"role", "aria-label"} {
		if v, ok := rec.Attributes[key]; ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
