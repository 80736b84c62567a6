// Package snapshot captures a page's DOM, layout geometry and computed
// styles in a single DevTools call and decodes the result into an
// index-addressed arena that the analyzer can walk without touching the
// browser again.
package snapshot

// DOM node types (the subset the analyzer cares about).
const (
	ElementNode  = 1
	TextNode     = 3
	DocumentNode = 9
)

// Style holds the computed style properties requested at capture time.
type Style struct {
	Display       string
	Visibility    string
	Cursor        string
	PointerEvents string
	Opacity       string
}

// Layout is one layout-tree object belonging to a node. Inline content can
// fragment into several layout objects, so a node carries a list of these.
type Layout struct {
	// Bounds is the bounding box in document coordinates.
	Bounds Rect
	// ClientRects are the border-box fragments; falls back to Bounds when
	// the capture did not include DOM rects.
	ClientRects []Rect
	// PaintOrder is the global paint sequence number; higher paints later
	// (on top). Zero when paint order was not captured.
	PaintOrder int
	Style      Style
}

// Node is one DOM node in a document's arena. Children reference siblings
// by index into the owning Document's Nodes slice, never by pointer.
type Node struct {
	Index      int
	Parent     int // -1 for the document root
	Type       int
	Name       string // lowercased tag name; "#text" for text nodes
	Value      string
	Attrs      map[string]string
	Children   []int
	ShadowRoot string // "open", "closed", "user-agent" or empty
	ContentDoc int    // index into Snapshot.Documents for iframes, else -1
	Clickable  bool   // browser-reported click handler presence
	Layouts    []Layout
}

// Document is one captured document: the main frame or a pierced
// same-origin iframe. Cross-origin frames are simply absent.
type Document struct {
	URL           string
	Title         string
	ScrollX       float64
	ScrollY       float64
	ContentWidth  float64
	ContentHeight float64
	Nodes         []Node
	BodyIndex     int // index of the body element, -1 when absent
}

// Snapshot is the full capture: document 0 is the main frame.
type Snapshot struct {
	Documents []Document
	// Viewport is the layout viewport client box with origin (0, 0).
	Viewport Rect
}

// Node returns the node at (doc, idx), or nil when out of range.
func (s *Snapshot) Node(doc, idx int) *Node {
	if doc < 0 || doc >= len(s.Documents) {
		return nil
	}
	d := &s.Documents[doc]
	if idx < 0 || idx >= len(d.Nodes) {
		return nil
	}
	return &d.Nodes[idx]
}

// HasLayout reports whether the node owns at least one layout object,
// i.e. it is part of the rendered tree.
func (n *Node) HasLayout() bool {
	return len(n.Layouts) > 0
}

// Attr returns the attribute value for name (lowercased) and whether it
// was present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}
