package analyzer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/brantansp/taf-dom-analyzer/internal/overlay"
	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

// docBuilder assembles a snapshot document by hand. Node 0 is always the
// body; add wires parent/child indexes.
type docBuilder struct {
	d snapshot.Document
}

func newDoc() *docBuilder {
	b := &docBuilder{}
	b.d.BodyIndex = 0
	b.d.Nodes = []snapshot.Node{{
		Index:      0,
		Parent:     -1,
		Type:       snapshot.ElementNode,
		Name:       "body",
		ContentDoc: -1,
	}}
	return b
}

func (b *docBuilder) add(parent int, n snapshot.Node) int {
	idx := len(b.d.Nodes)
	n.Index = idx
	n.Parent = parent
	if n.Name != "iframe" {
		n.ContentDoc = -1
	}
	b.d.Nodes = append(b.d.Nodes, n)
	b.d.Nodes[parent].Children = append(b.d.Nodes[parent].Children, idx)
	return idx
}

func (b *docBuilder) doc() snapshot.Document {
	return b.d
}

func snapOf(docs ...snapshot.Document) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Documents: docs,
		Viewport:  snapshot.Rect{Width: 1280, Height: 720},
	}
}

// rendered builds a single visible layout fragment at the given box.
func rendered(x, y, w, h float64, paint int) []snapshot.Layout {
	r := snapshot.Rect{X: x, Y: y, Width: w, Height: h}
	return []snapshot.Layout{{
		Bounds:      r,
		ClientRects: []snapshot.Rect{r},
		PaintOrder:  paint,
		Style:       snapshot.Style{Display: "block", Visibility: "visible"},
	}}
}

// styled is rendered with an explicit style.
func styled(x, y, w, h float64, paint int, s snapshot.Style) []snapshot.Layout {
	l := rendered(x, y, w, h, paint)
	l[0].Style = s
	return l
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runAnalysis(t *testing.T, snap *snapshot.Snapshot, settings Settings) (*Result, []overlay.Box) {
	t.Helper()
	result, boxes, err := Run(snap, settings, DefaultPolicy(), quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result, boxes
}

// findByXPath returns the first record with the given xpath, or nil.
func findByXPath(result *Result, xpath string) *NodeRecord {
	for _, rec := range result.Map {
		if rec.XPath == xpath {
			return rec
		}
	}
	return nil
}

func countHighlighted(result *Result) int {
	n := 0
	for _, rec := range result.Map {
		if rec.HighlightIndex != nil {
			n++
		}
	}
	return n
}
