package analyzer

import "testing"

func selectorIndexFor(recs ...*NodeRecord) *selectorIndex {
	nodes := make(map[string]*NodeRecord, len(recs))
	for _, rec := range recs {
		nodes[rec.ID] = rec
	}
	return newSelectorIndex(nodes, quietLogger())
}

func TestSelectorFor_ID(t *testing.T) {
	rec := &NodeRecord{ID: "1", TagName: "button", Attributes: map[string]string{"id": "submit-btn"}}
	s := selectorIndexFor(rec)

	if got := s.selectorFor(rec); got != "#submit-btn" {
		t.Errorf("selector: got %q, want %q", got, "#submit-btn")
	}
}

func TestSelectorFor_InvalidIDFallsThrough(t *testing.T) {
	rec := &NodeRecord{
		ID:         "1",
		TagName:    "input",
		Attributes: map[string]string{"id": "1:weird", "name": "email"},
	}
	s := selectorIndexFor(rec)

	if got := s.selectorFor(rec); got != `input[name="email"]` {
		t.Errorf("selector: got %q, want %q", got, `input[name="email"]`)
	}
}

func TestSelectorFor_UniqueClass(t *testing.T) {
	rec := &NodeRecord{ID: "1", TagName: "button", Attributes: map[string]string{"class": "primary large"}}
	other := &NodeRecord{ID: "2", TagName: "button", Attributes: map[string]string{"class": "secondary"}}
	s := selectorIndexFor(rec, other)

	if got := s.selectorFor(rec); got != "button.primary.large" {
		t.Errorf("selector: got %q, want %q", got, "button.primary.large")
	}
}

func TestSelectorFor_AmbiguousClassUsesNthChild(t *testing.T) {
	parent := &NodeRecord{
		ID:         "0",
		TagName:    "div",
		Attributes: map[string]string{"id": "list"},
		Children:   []string{"1", "2"},
	}
	first := &NodeRecord{ID: "1", TagName: "button", Attributes: map[string]string{"class": "item"}}
	second := &NodeRecord{ID: "2", TagName: "button", Attributes: map[string]string{"class": "item"}}
	s := selectorIndexFor(parent, first, second)

	if got := s.selectorFor(second); got != "#list > button:nth-child(2)" {
		t.Errorf("selector: got %q, want %q", got, "#list > button:nth-child(2)")
	}
}

func TestSelectorFor_TextSiblingsSkippedInNthChild(t *testing.T) {
	parent := &NodeRecord{
		ID:         "0",
		TagName:    "div",
		Attributes: map[string]string{"id": "wrap"},
		Children:   []string{"t", "1"},
	}
	text := &NodeRecord{ID: "t", TagName: "#text", Text: "hi"}
	link := &NodeRecord{ID: "1", TagName: "a"}
	s := selectorIndexFor(parent, text, link)

	if got := s.selectorFor(link); got != "#wrap > a:nth-child(1)" {
		t.Errorf("selector: got %q, want %q", got, "#wrap > a:nth-child(1)")
	}
}

func TestSelectorFor_BareTagFallback(t *testing.T) {
	rec := &NodeRecord{ID: "1", TagName: "textarea"}
	s := selectorIndexFor(rec)

	if got := s.selectorFor(rec); got != "textarea" {
		t.Errorf("selector: got %q, want %q", got, "textarea")
	}
}

func TestIsValidCSSIdent(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"primary", true},
		{"btn-large", true},
		{"_private", true},
		{"", false},
		{"9lives", false},
		{"-9start", false},
		{"a.b", false},
		{"a:hover", false},
		{"a[x]", false},
		{"a>b", false},
	}
	for _, tc := range cases {
		if got := isValidCSSIdent(tc.in); got != tc.want {
			t.Errorf("isValidCSSIdent(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}
