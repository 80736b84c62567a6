package analyzer

import (
	"strconv"
	"strings"

	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

// ClickabilitySource reports whether the browser saw a click/key listener
// registered on a node. It is an optional capability: a nil source simply
// removes that signal from the classifier.
type ClickabilitySource interface {
	IsClickable(doc int, n *snapshot.Node) bool
}

// snapshotClickability reads the listener flag the DevTools snapshot
// already carries.
type snapshotClickability struct{}

func (snapshotClickability) IsClickable(_ int, n *snapshot.Node) bool {
	return n.Clickable
}

// frameOffset translates a document's coordinates into top-viewport space.
type frameOffset struct {
	dx, dy float64
}

func (o frameOffset) apply(r snapshot.Rect) snapshot.Rect {
	return r.Translate(o.dx, o.dy)
}

// classifier holds the read-only inputs of the visibility/interactivity
// predicates. All methods are pure over the snapshot and the cache.
type classifier struct {
	snap      *snapshot.Snapshot
	policy    *policySets
	geo       *geoCache
	settings  Settings
	clickable ClickabilitySource
}

// viewportWindow is the expanded viewport in viewport coordinates.
func (c *classifier) viewportWindow() snapshot.Rect {
	exp := float64(c.settings.ViewportExpansion)
	vp := c.snap.Viewport
	return snapshot.Rect{
		X:      -exp,
		Y:      -exp,
		Width:  vp.Width + 2*exp,
		Height: vp.Height + 2*exp,
	}
}

// isElementAccepted applies the tag policy. Structural containers pass
// regardless of other checks.
func (c *classifier) isElementAccepted(n *snapshot.Node) bool {
	if _, ok := c.policy.structural[n.Name]; ok {
		return true
	}
	_, denied := c.policy.denied[n.Name]
	return !denied
}

// isElementVisible requires a rendered, non-collapsed box that is neither
// visibility:hidden, display:none nor fully transparent.
func (c *classifier) isElementVisible(doc, idx int) bool {
	rect := c.geo.boundingRect(doc, idx)
	if rect == nil || rect.Empty() {
		return false
	}
	style := c.geo.style(doc, idx)
	if style == nil {
		return false
	}
	if style.Visibility == "hidden" || style.Display == "none" {
		return false
	}
	return !opacityZero(style.Opacity)
}

// opacityZero reports a computed opacity of exactly 0. Absent or
// unparseable values count as opaque.
func opacityZero(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}

// isInExpandedViewport reports whether any client rect (or, if none, the
// bounding rect) intersects the expanded viewport window.
func (c *classifier) isInExpandedViewport(doc, idx int, off frameOffset) bool {
	if c.settings.ViewportExpansion == Unbounded {
		return true
	}
	window := c.viewportWindow()
	rects := c.geo.clientRects(doc, idx)
	if len(rects) == 0 {
		r := c.geo.boundingRect(doc, idx)
		if r == nil {
			return false
		}
		rects = []snapshot.Rect{*r}
	}
	for _, r := range rects {
		if off.apply(r).Intersects(window) {
			return true
		}
	}
	return false
}

// isTopElement decides occlusion. Unbounded expansion short-circuits to
// true; elements inside an iframe are trivially top (the iframe's own
// painter handles occlusion). Otherwise the middle client rect is probed
// at three points against the document's paint order.
func (c *classifier) isTopElement(doc, idx int, off frameOffset, inIframe bool) bool {
	if c.settings.ViewportExpansion == Unbounded {
		return true
	}
	if inIframe {
		return true
	}

	rects := c.geo.clientRects(doc, idx)
	if len(rects) == 0 {
		return false
	}
	window := c.viewportWindow()
	inWindow := false
	for _, r := range rects {
		if off.apply(r).Intersects(window) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false
	}

	// Probe the middle rect: center plus two inset corners.
	mid := rects[len(rects)/2]
	points := [][2]float64{
		{mid.X + mid.Width/2, mid.Y + mid.Height/2},
		{mid.X + mid.Width*0.1, mid.Y + mid.Height*0.1},
		{mid.X + mid.Width*0.9, mid.Y + mid.Height*0.9},
	}
	for _, pt := range points {
		hit := c.hitTest(doc, pt[0], pt[1])
		if hit >= 0 && c.selfOrAncestorIs(doc, hit, idx) {
			return true
		}
	}
	return false
}

// hitTest returns the node owning the topmost paintable layout box
// containing the document-space point, or -1. The cache keeps the boxes
// sorted topmost first, so the first containing box wins.
func (c *classifier) hitTest(doc int, x, y float64) int {
	for _, b := range c.geo.paintBoxes(doc) {
		if b.bounds.Contains(x, y) {
			return b.node
		}
	}
	return -1
}

// selfOrAncestorIs walks from node up the parent chain (crossing shadow
// roots, stopping at the document) looking for target.
func (c *classifier) selfOrAncestorIs(doc, node, target int) bool {
	for cur := node; cur >= 0; {
		if cur == target {
			return true
		}
		n := c.snap.Node(doc, cur)
		if n == nil {
			return false
		}
		cur = n.Parent
	}
	return false
}

// isInteractiveElement layers its checks cheap to expensive: cursor, then
// tag and attribute policy, then listener introspection.
func (c *classifier) isInteractiveElement(doc int, n *snapshot.Node) bool {
	style := c.geo.style(doc, n.Index)
	cursor := ""
	if style != nil {
		cursor = style.Cursor
	}

	// (a) interactive cursor.
	if _, ok := c.policy.cursors[cursor]; ok && n.Name != "html" {
		return true
	}

	// (b) native interactive tag, unless disabled or cursor vetoes it.
	if _, ok := c.policy.tags[n.Name]; ok {
		if _, disabled := n.Attrs["disabled"]; disabled {
			return false
		}
		if _, readonly := n.Attrs["readonly"]; readonly {
			return false
		}
		if _, inert := n.Attrs["inert"]; inert {
			return false
		}
		if _, veto := c.policy.nonCursors[cursor]; veto {
			return false
		}
		return true
	}

	// (c) content-editable regions.
	if isContentEditable(n) {
		return true
	}

	// (d) marker classes and dropdown/index attributes.
	if c.hasInteractiveMarker(n) {
		return true
	}

	// (e) explicit interactive ARIA role.
	if c.hasInteractiveRole(n) {
		return true
	}

	// (f) registered listener (optional capability) or inline handler.
	if c.clickable != nil && c.clickable.IsClickable(doc, n) {
		return true
	}
	return hasInlineHandler(n)
}

// isElementDistinctInteraction decides whether a nested interactive
// element deserves its own highlight despite a highlighted ancestor.
func (c *classifier) isElementDistinctInteraction(doc int, n *snapshot.Node, off frameOffset) bool {
	if n.Name == "iframe" {
		return true
	}
	if _, ok := c.policy.distinctTags[n.Name]; ok {
		return true
	}
	if c.hasInteractiveRole(n) {
		return true
	}
	if isContentEditable(n) {
		return true
	}
	for _, attr := range []string{"data-testid", "data-cy", "data-test"} {
		if _, ok := n.Attrs[attr]; ok {
			return true
		}
	}
	if c.clickable != nil && c.clickable.IsClickable(doc, n) {
		return true
	}
	if hasInlineHandler(n) {
		return true
	}
	return c.isHeuristicallyInteractive(doc, n, off)
}

// isHeuristicallyInteractive is the fallback for styled widgets: visible,
// carries some interactive signal, has visible content, and sits inside a
// known interactive container without being a direct child of body.
func (c *classifier) isHeuristicallyInteractive(doc int, n *snapshot.Node, off frameOffset) bool {
	if !c.isElementVisible(doc, n.Index) {
		return false
	}
	if !c.hasInteractiveMarker(n) && !c.hasInteractiveRole(n) && !c.isInteractiveElement(doc, n) {
		return false
	}

	hasVisibleChild := false
	for _, childIdx := range n.Children {
		child := c.snap.Node(doc, childIdx)
		if child == nil || child.Type != snapshot.ElementNode {
			continue
		}
		if c.isElementVisible(doc, childIdx) {
			hasVisibleChild = true
			break
		}
	}
	if !hasVisibleChild {
		return false
	}

	parent := c.snap.Node(doc, n.Parent)
	if parent == nil || parent.Name == "body" {
		return false
	}
	for cur := parent; cur != nil; cur = c.snap.Node(doc, cur.Parent) {
		if _, ok := c.policy.tags[cur.Name]; ok {
			return true
		}
		if c.hasInteractiveRole(cur) || c.hasInteractiveMarker(cur) {
			return true
		}
	}
	return false
}

// isTextVisible judges a text node: rendered, inside a visible parent and
// (under a bounded viewport) intersecting the expanded window.
func (c *classifier) isTextVisible(doc int, n *snapshot.Node, off frameOffset) bool {
	rect := c.geo.boundingRect(doc, n.Index)
	if rect == nil || rect.Empty() {
		return false
	}
	if parent := c.snap.Node(doc, n.Parent); parent != nil {
		if style := c.geo.style(doc, parent.Index); style != nil {
			if style.Visibility == "hidden" || style.Display == "none" {
				return false
			}
		}
	}
	if c.settings.ViewportExpansion == Unbounded {
		return true
	}
	return c.isInExpandedViewport(doc, n.Index, off)
}

func (c *classifier) hasInteractiveRole(n *snapshot.Node) bool {
	role, ok := n.Attrs["role"]
	if !ok {
		role, ok = n.Attrs["aria-role"]
	}
	if !ok {
		return false
	}
	_, interactive := c.policy.roles[strings.ToLower(strings.TrimSpace(role))]
	return interactive
}

func (c *classifier) hasInteractiveMarker(n *snapshot.Node) bool {
	if class, ok := n.Attrs["class"]; ok {
		for _, name := range strings.Fields(class) {
			for _, marker := range c.policy.markerClasses {
				if strings.EqualFold(name, marker) {
					return true
				}
			}
		}
	}
	if v, ok := n.Attrs["data-toggle"]; ok && v == "dropdown" {
		return true
	}
	if v, ok := n.Attrs["aria-haspopup"]; ok && v == "true" {
		return true
	}
	_, ok := n.Attrs["data-index"]
	return ok
}

func isContentEditable(n *snapshot.Node) bool {
	v, ok := n.Attrs["contenteditable"]
	return ok && (v == "" || strings.EqualFold(v, "true"))
}

// hasInlineHandler detects onclick-style attributes.
func hasInlineHandler(n *snapshot.Node) bool {
	for name := range n.Attrs {
		if strings.HasPrefix(name, "on") && len(name) > 2 {
			return true
		}
	}
	return false
}
