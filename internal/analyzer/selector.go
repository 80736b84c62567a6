package analyzer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// selectorIndex synthesizes CSS selectors offline against the flat map.
// Selectors are a collaborator convenience: synthesis failure degrades to
// an empty string, never an error.
type selectorIndex struct {
	nodes  map[string]*NodeRecord
	parent map[string]string // child id -> parent id
	logger *slog.Logger
}

func newSelectorIndex(nodes map[string]*NodeRecord, logger *slog.Logger) *selectorIndex {
	parent := make(map[string]string, len(nodes))
	for id, rec := range nodes {
		for _, childID := range rec.Children {
			parent[childID] = id
		}
	}
	return &selectorIndex{nodes: nodes, parent: parent, logger: logger}
}

// maxSelectorDepth bounds the nth-child fallback recursion.
const maxSelectorDepth = 10

func (s *selectorIndex) selectorFor(rec *NodeRecord) string {
	sel := s.build(rec, 0)
	if sel == "" {
		s.logger.Debug("analyzer: selector synthesis failed", "id", rec.ID, "xpath", rec.XPath)
	}
	return sel
}

func (s *selectorIndex) build(rec *NodeRecord, depth int) string {
	if depth > maxSelectorDepth {
		return ""
	}

	if id, ok := rec.Attributes["id"]; ok && isValidCSSIdent(id) {
		return "#" + id
	}
	if name, ok := rec.Attributes["name"]; ok && name != "" {
		return fmt.Sprintf(`%s[name=%q]`, rec.TagName, name)
	}

	// Class-based selector when it is unique across the captured map.
	if class, ok := rec.Attributes["class"]; ok {
		var valid []string
		for _, name := range strings.Fields(class) {
			if isValidCSSIdent(name) {
				valid = append(valid, name)
			}
			if len(valid) == 2 {
				break
			}
		}
		if len(valid) > 0 {
			sel := rec.TagName + "." + strings.Join(valid, ".")
			if s.countMatches(rec.TagName, valid) == 1 {
				return sel
			}
		}
	}

	// nth-child fallback relative to the captured siblings. Best effort:
	// siblings pruned from the map shift the index.
	if parentID, ok := s.parent[rec.ID]; ok {
		parentRec := s.nodes[parentID]
		if parentRec != nil {
			index := 0
			for _, childID := range parentRec.Children {
				child := s.nodes[childID]
				if child == nil || child.TagName == "#text" {
					continue
				}
				index++
				if childID == rec.ID {
					break
				}
			}
			parentSel := s.build(parentRec, depth+1)
			if parentSel != "" && index > 0 {
				return fmt.Sprintf("%s > %s:nth-child(%d)", parentSel, rec.TagName, index)
			}
		}
	}

	return rec.TagName
}

func (s *selectorIndex) countMatches(tag string, classes []string) int {
	count := 0
	for _, rec := range s.nodes {
		if rec.TagName != tag {
			continue
		}
		class, ok := rec.Attributes["class"]
		if !ok {
			continue
		}
		have := strings.Fields(class)
		all := true
		for _, want := range classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}

var (
	leadingDigit     = regexp.MustCompile(`^[0-9]`)
	dashDigit        = regexp.MustCompile(`^-[0-9]`)
	invalidIdentChar = regexp.MustCompile(`[.:#\[\]()>~+*/\\]`)
)

// isValidCSSIdent mirrors the checks selectors need: no leading digit, no
// dash-digit prefix, none of the CSS combinator/selector characters.
func isValidCSSIdent(s string) bool {
	if s == "" {
		return false
	}
	if leadingDigit.MatchString(s) || dashDigit.MatchString(s) {
		return false
	}
	return !invalidIdentChar.MatchString(s)
}
