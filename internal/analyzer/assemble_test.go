package analyzer

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

func TestAssemble_Envelope(t *testing.T) {
	prev := now
	now = func() time.Time { return time.UnixMilli(1700000000000) }
	defer func() { now = prev }()

	b := newDoc()
	b.d.URL = "https://example.com/login"
	b.d.Title = "Login"
	btn := b.add(0, snapshot.Node{
		Type:    snapshot.ElementNode,
		Name:    "button",
		Layouts: rendered(10, 10, 100, 30, 2),
	})
	b.add(btn, snapshot.Node{
		Type:    snapshot.TextNode,
		Name:    "#text",
		Value:   "Sign in",
		Layouts: rendered(10, 10, 60, 20, 3),
	})

	result, _ := runAnalysis(t, snapOf(b.doc()), DefaultSettings())

	if result.Timestamp != 1700000000000 {
		t.Errorf("Timestamp: got %d, want 1700000000000", result.Timestamp)
	}
	if result.URL != "https://example.com/login" {
		t.Errorf("URL: got %q", result.URL)
	}
	if result.Title != "Login" {
		t.Errorf("Title: got %q", result.Title)
	}
	if result.TotalElements != len(result.Map) {
		t.Errorf("TotalElements: got %d, want %d", result.TotalElements, len(result.Map))
	}
	if result.HighlightedElements != 1 {
		t.Errorf("HighlightedElements: got %d, want 1", result.HighlightedElements)
	}
}

func TestExtractText_Capped(t *testing.T) {
	long := strings.Repeat("abcdefghij", 15) // 150 chars

	b := newDoc()
	p := b.add(0, snapshot.Node{
		Type:    snapshot.ElementNode,
		Name:    "a",
		Attrs:   map[string]string{"href": "/long"},
		Layouts: rendered(10, 10, 400, 30, 2),
	})
	b.add(p, snapshot.Node{
		Type:    snapshot.TextNode,
		Name:    "#text",
		Value:   long,
		Layouts: rendered(10, 10, 400, 30, 3),
	})

	result, _ := runAnalysis(t, snapOf(b.doc()), DefaultSettings())

	if len(result.InteractiveElements) != 1 {
		t.Fatalf("interactive elements: got %d, want 1", len(result.InteractiveElements))
	}
	got := result.InteractiveElements[0].Text
	if len(got) > maxTextLength {
		t.Errorf("Text length: got %d, want <= %d", len(got), maxTextLength)
	}
	if !strings.HasPrefix(long, got) {
		t.Errorf("Text is not a prefix of the source text: %q", got)
	}
}

func TestExtractText_CapCountsRunes(t *testing.T) {
	long := strings.Repeat("日本語テス", 30) // 150 runes, 450 bytes

	b := newDoc()
	p := b.add(0, snapshot.Node{
		Type:    snapshot.ElementNode,
		Name:    "button",
		Layouts: rendered(10, 10, 400, 30, 2),
	})
	b.add(p, snapshot.Node{
		Type:    snapshot.TextNode,
		Name:    "#text",
		Value:   long,
		Layouts: rendered(10, 10, 400, 30, 3),
	})

	result, _ := runAnalysis(t, snapOf(b.doc()), DefaultSettings())

	if len(result.InteractiveElements) != 1 {
		t.Fatalf("interactive elements: got %d, want 1", len(result.InteractiveElements))
	}
	got := result.InteractiveElements[0].Text
	if !utf8.ValidString(got) {
		t.Fatalf("Text is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxTextLength {
		t.Errorf("Text runes: got %d, want %d", n, maxTextLength)
	}
	if !strings.HasPrefix(long, got) {
		t.Errorf("Text is not a prefix of the source text: %q", got)
	}
}

func TestExtractText_JoinsVisibleParts(t *testing.T) {
	b := newDoc()
	btn := b.add(0, snapshot.Node{
		Type:    snapshot.ElementNode,
		Name:    "button",
		Layouts: rendered(10, 10, 200, 30, 2),
	})
	b.add(btn, snapshot.Node{
		Type:    snapshot.TextNode,
		Name:    "#text",
		Value:   "Save",
		Layouts: rendered(10, 10, 40, 20, 3),
	})
	span := b.add(btn, snapshot.Node{
		Type:    snapshot.ElementNode,
		Name:    "span",
		Layouts: rendered(60, 10, 60, 20, 3),
	})
	b.add(span, snapshot.Node{
		Type:    snapshot.TextNode,
		Name:    "#text",
		Value:   "changes",
		Layouts: rendered(60, 10, 60, 20, 4),
	})

	result, _ := runAnalysis(t, snapOf(b.doc()), DefaultSettings())

	if len(result.InteractiveElements) != 1 {
		t.Fatalf("interactive elements: got %d, want 1", len(result.InteractiveElements))
	}
	if got := result.InteractiveElements[0].Text; got != "Save changes" {
		t.Errorf("Text: got %q, want %q", got, "Save changes")
	}
}

func TestDescribe_AttributeOrder(t *testing.T) {
	rec := &NodeRecord{
		TagName: "input",
		Attributes: map[string]string{
			"type":        "email",
			"placeholder": "you@example.com",
			"aria-label":  "Email",
			"role":        "textbox",
		},
	}

	got := describe(rec, "hint")
	want := "input email you@example.com hint textbox Email"
	if got != want {
		t.Errorf("describe: got %q, want %q", got, want)
	}
}

func TestDescribe_SkipsMissing(t *testing.T) {
	rec := &NodeRecord{TagName: "button"}
	if got := describe(rec, ""); got != "button" {
		t.Errorf("describe: got %q, want %q", got, "button")
	}
}

func TestAssemble_PriorityToggle(t *testing.T) {
	build := func() *snapshot.Snapshot {
		b := newDoc()
		b.add(0, snapshot.Node{
			Type:    snapshot.ElementNode,
			Name:    "button",
			Layouts: rendered(10, 10, 100, 30, 2),
		})
		return snapOf(b.doc())
	}

	on := DefaultSettings()
	result, _ := runAnalysis(t, build(), on)
	if result.InteractiveElements[0].Priority == "" {
		t.Errorf("Priority: got empty, want a tier when prioritization is on")
	}

	off := DefaultSettings()
	off.PrioritizeByImportance = false
	result, _ = runAnalysis(t, build(), off)
	if result.InteractiveElements[0].Priority != "" {
		t.Errorf("Priority: got %q, want empty when prioritization is off", result.InteractiveElements[0].Priority)
	}
}
