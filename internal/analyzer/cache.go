package analyzer

import (
	"sort"

	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

// nodeKey identifies a node across the snapshot's documents.
type nodeKey struct {
	doc  int
	node int
}

// paintBox is one hit-testable layout fragment of a document.
type paintBox struct {
	node   int
	bounds snapshot.Rect
	order  int
}

// geoCache memoizes per-node geometry and style lookups for one run.
// Keys are arena indexes, not element handles, so discarding the run
// discards the cache with it; nothing survives across runs.
type geoCache struct {
	snap    *snapshot.Snapshot
	rects   map[nodeKey]*snapshot.Rect
	clients map[nodeKey][]snapshot.Rect
	styles  map[nodeKey]*snapshot.Style
	paint   map[int][]paintBox

	// computes counts derivations (cache misses); tests assert each value
	// is derived at most once per run.
	computes int
}

func newGeoCache(snap *snapshot.Snapshot) *geoCache {
	c := &geoCache{snap: snap}
	c.clear()
	return c
}

// clear resets all three caches atomically. Cached geometry is invalid
// once overlays or the page itself have been mutated.
func (c *geoCache) clear() {
	c.rects = make(map[nodeKey]*snapshot.Rect)
	c.clients = make(map[nodeKey][]snapshot.Rect)
	c.styles = make(map[nodeKey]*snapshot.Style)
	c.paint = make(map[int][]paintBox)
}

// paintBoxes returns the document's hit-testable layout fragments sorted
// topmost first. Fragments that cannot take a hit (pointer-events:none,
// hidden, display:none) are filtered out at build time, so one pass over
// the document serves every probe of the run.
func (c *geoCache) paintBoxes(doc int) []paintBox {
	if boxes, ok := c.paint[doc]; ok {
		return boxes
	}
	c.computes++

	var boxes []paintBox
	if doc >= 0 && doc < len(c.snap.Documents) {
		d := &c.snap.Documents[doc]
		for i := range d.Nodes {
			for _, l := range d.Nodes[i].Layouts {
				s := l.Style
				if s.PointerEvents == "none" || s.Visibility == "hidden" || s.Display == "none" {
					continue
				}
				boxes = append(boxes, paintBox{node: i, bounds: l.Bounds, order: l.PaintOrder})
			}
		}
		sort.SliceStable(boxes, func(a, b int) bool { return boxes[a].order > boxes[b].order })
	}
	c.paint[doc] = boxes
	return boxes
}

// boundingRect returns the document-space bounding box (union of the
// node's layout fragments), or nil when the node has no layout.
func (c *geoCache) boundingRect(doc, idx int) *snapshot.Rect {
	key := nodeKey{doc, idx}
	if r, ok := c.rects[key]; ok {
		return r
	}
	c.computes++

	var r *snapshot.Rect
	if n := c.snap.Node(doc, idx); n != nil && n.HasLayout() {
		u := snapshot.Rect{}
		for _, l := range n.Layouts {
			u = u.Union(l.Bounds)
		}
		r = &u
	}
	c.rects[key] = r
	return r
}

// clientRects returns the node's border-box fragments in document space.
// Empty for unrendered nodes.
func (c *geoCache) clientRects(doc, idx int) []snapshot.Rect {
	key := nodeKey{doc, idx}
	if rects, ok := c.clients[key]; ok {
		return rects
	}
	c.computes++

	var rects []snapshot.Rect
	if n := c.snap.Node(doc, idx); n != nil {
		for _, l := range n.Layouts {
			rects = append(rects, l.ClientRects...)
		}
	}
	c.clients[key] = rects
	return rects
}

// style returns the node's computed style, or nil for unrendered nodes.
func (c *geoCache) style(doc, idx int) *snapshot.Style {
	key := nodeKey{doc, idx}
	if s, ok := c.styles[key]; ok {
		return s
	}
	c.computes++

	var s *snapshot.Style
	if n := c.snap.Node(doc, idx); n != nil && n.HasLayout() {
		s = &n.Layouts[0].Style
	}
	c.styles[key] = s
	return s
}
