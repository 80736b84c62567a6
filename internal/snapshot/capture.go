package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// computedStyleProps are the styles requested from the browser, in order.
// decodeStyle depends on this order.
var computedStyleProps = []string{
	"display",
	"visibility",
	"cursor",
	"pointer-events",
	"opacity",
}

// Capture takes one DOMSnapshot of the page, piercing shadow roots and
// same-origin iframes, and decodes it together with the layout metrics.
func Capture(ctx context.Context, page *rod.Page) (*Snapshot, error) {
	p := page.Context(ctx)

	metrics, err := proto.PageGetLayoutMetrics{}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot: layout metrics: %w", err)
	}

	raw, err := proto.DOMSnapshotCaptureSnapshot{
		ComputedStyles:    computedStyleProps,
		IncludePaintOrder: true,
		IncludeDOMRects:   true,
	}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot: capture: %w", err)
	}

	snap := decode(raw)
	if metrics.CSSLayoutViewport != nil {
		snap.Viewport = Rect{
			Width:  float64(metrics.CSSLayoutViewport.ClientWidth),
			Height: float64(metrics.CSSLayoutViewport.ClientHeight),
		}
	}
	return snap, nil
}

// decode flattens the string-table-indexed wire format into the arena model.
func decode(raw *proto.DOMSnapshotCaptureSnapshotResult) *Snapshot {
	str := func(i proto.DOMSnapshotStringIndex) string {
		if int(i) < 0 || int(i) >= len(raw.Strings) {
			return ""
		}
		return raw.Strings[i]
	}

	snap := &Snapshot{Documents: make([]Document, 0, len(raw.Documents))}

	for _, rawDoc := range raw.Documents {
		doc := Document{
			URL:           str(rawDoc.DocumentURL),
			Title:         str(rawDoc.Title),
			ScrollX:       optFloat(rawDoc.ScrollOffsetX),
			ScrollY:       optFloat(rawDoc.ScrollOffsetY),
			ContentWidth:  optFloat(rawDoc.ContentWidth),
			ContentHeight: optFloat(rawDoc.ContentHeight),
			BodyIndex:     -1,
		}

		nt := rawDoc.Nodes
		if nt == nil {
			snap.Documents = append(snap.Documents, doc)
			continue
		}

		count := len(nt.NodeType)
		doc.Nodes = make([]Node, count)

		shadowType := rareStrings(nt.ShadowRootType, str)
		contentDoc := rareInts(nt.ContentDocumentIndex)
		clickable := rareBools(nt.IsClickable)

		for i := 0; i < count; i++ {
			n := &doc.Nodes[i]
			n.Index = i
			n.Parent = -1
			if i < len(nt.ParentIndex) {
				n.Parent = nt.ParentIndex[i]
			}
			n.Type = nt.NodeType[i]
			if i < len(nt.NodeName) {
				n.Name = strings.ToLower(str(nt.NodeName[i]))
			}
			if i < len(nt.NodeValue) {
				n.Value = str(nt.NodeValue[i])
			}
			if i < len(nt.Attributes) {
				n.Attrs = decodeAttrs(nt.Attributes[i], str)
			}
			n.ShadowRoot = shadowType[i]
			n.ContentDoc = -1
			if ci, ok := contentDoc[i]; ok {
				n.ContentDoc = ci
			}
			n.Clickable = clickable[i]

			if n.Parent >= 0 && n.Parent < count {
				doc.Nodes[n.Parent].Children = append(doc.Nodes[n.Parent].Children, i)
			}
			if doc.BodyIndex < 0 && n.Type == ElementNode && n.Name == "body" {
				doc.BodyIndex = i
			}
		}

		decodeLayout(&doc, rawDoc.Layout, str)
		snap.Documents = append(snap.Documents, doc)
	}

	return snap
}

func decodeLayout(doc *Document, lt *proto.DOMSnapshotLayoutTreeSnapshot, str func(proto.DOMSnapshotStringIndex) string) {
	if lt == nil {
		return
	}
	for li, nodeIdx := range lt.NodeIndex {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			continue
		}
		layout := Layout{Bounds: decodeRect(lt.Bounds, li)}
		if li < len(lt.Styles) {
			layout.Style = decodeStyle(lt.Styles[li], str)
		}
		if li < len(lt.PaintOrders) {
			layout.PaintOrder = lt.PaintOrders[li]
		}
		if cr := decodeRect(lt.ClientRects, li); !cr.Empty() {
			layout.ClientRects = []Rect{cr}
		} else if !layout.Bounds.Empty() {
			layout.ClientRects = []Rect{layout.Bounds}
		}
		doc.Nodes[nodeIdx].Layouts = append(doc.Nodes[nodeIdx].Layouts, layout)
	}
}

// optFloat reads an optional wire field, treating absent as zero.
func optFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func decodeRect(rects []proto.DOMSnapshotRectangle, i int) Rect {
	if i < 0 || i >= len(rects) || len(rects[i]) < 4 {
		return Rect{}
	}
	r := rects[i]
	return Rect{X: r[0], Y: r[1], Width: r[2], Height: r[3]}
}

func decodeStyle(vals proto.DOMSnapshotArrayOfStrings, str func(proto.DOMSnapshotStringIndex) string) Style {
	get := func(i int) string {
		if i >= len(vals) {
			return ""
		}
		return str(vals[i])
	}
	// Indexes follow computedStyleProps.
	return Style{
		Display:       get(0),
		Visibility:    get(1),
		Cursor:        get(2),
		PointerEvents: get(3),
		Opacity:       get(4),
	}
}

func decodeAttrs(vals proto.DOMSnapshotArrayOfStrings, str func(proto.DOMSnapshotStringIndex) string) map[string]string {
	if len(vals) < 2 {
		return nil
	}
	attrs := make(map[string]string, len(vals)/2)
	for i := 0; i+1 < len(vals); i += 2 {
		attrs[strings.ToLower(str(vals[i]))] = str(vals[i+1])
	}
	return attrs
}

func rareStrings(d *proto.DOMSnapshotRareStringData, str func(proto.DOMSnapshotStringIndex) string) map[int]string {
	out := map[int]string{}
	if d == nil {
		return out
	}
	for i, idx := range d.Index {
		if i < len(d.Value) {
			out[idx] = str(d.Value[i])
		}
	}
	return out
}

func rareInts(d *proto.DOMSnapshotRareIntegerData) map[int]int {
	out := map[int]int{}
	if d == nil {
		return out
	}
	for i, idx := range d.Index {
		if i < len(d.Value) {
			out[idx] = d.Value[i]
		}
	}
	return out
}

func rareBools(d *proto.DOMSnapshotRareBooleanData) map[int]bool {
	out := map[int]bool{}
	if d == nil {
		return out
	}
	for _, idx := range d.Index {
		out[idx] = true
	}
	return out
}
