package analyzer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/brantansp/taf-dom-analyzer/internal/overlay"
	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

// run is the context of one analysis pass: counters, the flat map, the
// geometry cache and the pending overlay boxes. It is constructed per
// run and discarded with it, so no state leaks across runs.
type run struct {
	snap     *snapshot.Snapshot
	settings Settings
	policy   *policySets
	logger   *slog.Logger
	geo      *geoCache
	cls      *classifier

	nextID        int
	nodes         map[string]*NodeRecord
	nextHighlight int
	boxes         []overlay.Box
}

// walkState is threaded down the recursion explicitly: geometry offset of
// the current document, the xpath prefix, and whether an ancestor already
// got a highlight. No shared mutable flags.
type walkState struct {
	doc               int
	offset            frameOffset
	parentHighlighted bool
	inIframe          bool
	inShadow          bool
}

func newRun(snap *snapshot.Snapshot, settings Settings, policy Policy, logger *slog.Logger, clickable ClickabilitySource) *run {
	if logger == nil {
		logger = slog.Default()
	}
	sets := policy.compile()
	geo := newGeoCache(snap)
	return &run{
		snap:     snap,
		settings: settings,
		policy:   sets,
		logger:   logger,
		geo:      geo,
		cls: &classifier{
			snap:      snap,
			policy:    sets,
			geo:       geo,
			settings:  settings,
			clickable: clickable,
		},
		nodes: make(map[string]*NodeRecord),
	}
}

// Run executes the pure engine over a snapshot: traversal, classification,
// highlight indexing and assembly. It needs no browser, which is how the
// tests drive it.
func Run(snap *snapshot.Snapshot, settings Settings, policy Policy, logger *slog.Logger) (*Result, []overlay.Box, error) {
	return newRun(snap, settings, policy, logger, snapshotClickability{}).execute()
}

func (r *run) execute() (*Result, []overlay.Box, error) {
	if len(r.snap.Documents) == 0 {
		return nil, nil, fmt.Errorf("analyzer: empty snapshot")
	}
	doc := &r.snap.Documents[0]
	if doc.BodyIndex < 0 {
		return nil, nil, fmt.Errorf("analyzer: document has no body")
	}

	st := walkState{
		doc:    0,
		offset: frameOffset{dx: -doc.ScrollX, dy: -doc.ScrollY},
	}

	// The body root is special-cased: always visible, top and in viewport.
	body := r.snap.Node(0, doc.BodyIndex)
	root := &NodeRecord{
		ID:           r.allocID(),
		TagName:      "body",
		Attributes:   map[string]string{},
		XPath:        "/html/body",
		IsVisible:    true,
		IsTopElement: true,
		IsInViewport: true,
	}
	r.nodes[root.ID] = root
	root.Children = r.walkChildren(body, st, root.XPath)

	result := r.assemble(root.ID)
	return result, r.boxes, nil
}

func (r *run) allocID() string {
	id := strconv.Itoa(r.nextID)
	r.nextID++
	return id
}

// full reports whether the flat map reached the element cap.
func (r *run) full() bool {
	return r.settings.MaxElements > 0 && len(r.nodes) >= r.settings.MaxElements
}

// walkChildren traverses a node's light-DOM children, then the children of
// its open shadow roots as additional children of the host. Sibling xpath
// indexes are computed per child list.
func (r *run) walkChildren(parent *snapshot.Node, st walkState, parentPath string) []string {
	if parent == nil {
		return nil
	}

	light, shadows := r.partitionChildren(st.doc, parent)

	ids := r.walkList(light, st, parentPath)
	shadowState := st
	shadowState.inShadow = true
	for _, shadowIdx := range shadows {
		shadow := r.snap.Node(st.doc, shadowIdx)
		if shadow == nil {
			continue
		}
		ids = append(ids, r.walkList(shadow.Children, shadowState, parentPath)...)
	}
	return ids
}

// partitionChildren splits a node's children into light DOM nodes and open
// shadow roots. User-agent and closed shadow roots are skipped: the first
// are native control internals, the second are unreachable to page code.
func (r *run) partitionChildren(doc int, parent *snapshot.Node) (light, shadows []int) {
	for _, idx := range parent.Children {
		child := r.snap.Node(doc, idx)
		if child == nil {
			continue
		}
		if child.ShadowRoot != "" {
			if child.ShadowRoot == "open" {
				shadows = append(shadows, idx)
			}
			continue
		}
		light = append(light, idx)
	}
	return light, shadows
}

func (r *run) walkList(children []int, st walkState, parentPath string) []string {
	totals := map[string]int{}
	for _, idx := range children {
		if n := r.snap.Node(st.doc, idx); n != nil && n.Type == snapshot.ElementNode {
			totals[n.Name]++
		}
	}

	var ids []string
	seen := map[string]int{}
	for _, idx := range children {
		n := r.snap.Node(st.doc, idx)
		if n == nil {
			continue
		}
		xpath := parentPath
		if n.Type == snapshot.ElementNode {
			seen[n.Name]++
			xpath += "/" + n.Name
			if totals[n.Name] > 1 {
				xpath += fmt.Sprintf("[%d]", seen[n.Name])
			}
		}
		if id := r.walkNode(n, st, xpath); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// walkNode emits one node (and its subtree) into the flat map, returning
// its id or "" when the node is rejected.
func (r *run) walkNode(n *snapshot.Node, st walkState, xpath string) string {
	// Never re-capture our own overlay container.
	if id, ok := n.Attrs["id"]; ok && id == overlay.ContainerID {
		return ""
	}

	switch n.Type {
	case snapshot.TextNode:
		return r.emitText(n, st, xpath)
	case snapshot.ElementNode:
		return r.emitElement(n, st, xpath)
	default:
		return ""
	}
}

func (r *run) emitText(n *snapshot.Node, st walkState, parentPath string) string {
	text := strings.TrimSpace(n.Value)
	if text == "" {
		return ""
	}
	if !r.cls.isTextVisible(st.doc, n, st.offset) {
		return ""
	}
	if r.full() {
		return ""
	}

	rec := &NodeRecord{
		ID:        r.allocID(),
		TagName:   "#text",
		XPath:     parentPath + "/text()",
		Text:      text,
		IsVisible: true,
	}
	r.nodes[rec.ID] = rec
	return rec.ID
}

func (r *run) emitElement(n *snapshot.Node, st walkState, xpath string) string {
	if !r.cls.isElementAccepted(n) {
		return ""
	}

	// A rendered element whose box collapsed to nothing is noise under a
	// bounded viewport. Unrendered elements (display:none subtrees) are
	// kept and simply marked not visible.
	if r.settings.ViewportExpansion != Unbounded && n.HasLayout() {
		if rect := r.geo.boundingRect(st.doc, n.Index); rect == nil || rect.Empty() {
			if !r.isStructural(n) {
				return ""
			}
		}
	}

	if r.full() {
		return ""
	}

	rec := &NodeRecord{
		ID:      r.allocID(),
		TagName: n.Name,
		XPath:   xpath,
	}

	if r.capturesAttributes(n) {
		rec.Attributes = copyAttrs(n.Attrs)
	}

	// Classification order: visibility, interactivity, topness, highlight.
	rec.IsVisible = r.cls.isElementVisible(st.doc, n.Index)
	highlighted := false
	if rec.IsVisible {
		rec.IsInteractive = r.cls.isInteractiveElement(st.doc, n)
		rec.IsTopElement = r.cls.isTopElement(st.doc, n.Index, st.offset, st.inIframe)
		rec.IsInViewport = r.cls.isInExpandedViewport(st.doc, n.Index, st.offset)
		if rec.IsInteractive && rec.IsTopElement {
			highlighted = r.handleHighlighting(rec, n, st)
		}
	}

	r.nodes[rec.ID] = rec

	childState := st
	childState.parentHighlighted = st.parentHighlighted || highlighted

	if n.Name == "iframe" {
		rec.Children = r.walkIframe(n, childState, highlighted)
	} else {
		if _, open := openShadow(r.snap, st.doc, n); open {
			rec.ShadowRoot = true
		}
		rec.Children = r.walkChildren(n, childState, xpath)
	}

	// An empty anchor with no href and no box is pure noise.
	if n.Name == "a" && len(rec.Children) == 0 {
		if _, hasHref := n.Attrs["href"]; !hasHref {
			rect := r.geo.boundingRect(st.doc, n.Index)
			if rect == nil || rect.Empty() {
				delete(r.nodes, rec.ID)
				return ""
			}
		}
	}

	return rec.ID
}

// walkIframe recurses into a same-origin iframe's body, re-basing the
// geometry offset on the iframe's own box and carrying the iframe's
// highlight state down as the parent-highlighted flag. Cross-origin
// content never makes it into the snapshot, so it is skipped quietly.
func (r *run) walkIframe(n *snapshot.Node, st walkState, highlighted bool) []string {
	if n.ContentDoc < 0 || n.ContentDoc >= len(r.snap.Documents) {
		r.logger.Debug("analyzer: skipping unreachable iframe", "xpath", r.nodeXPath(n))
		return nil
	}
	childDoc := &r.snap.Documents[n.ContentDoc]
	if childDoc.BodyIndex < 0 {
		return nil
	}

	frameRect := r.geo.boundingRect(st.doc, n.Index)
	if frameRect == nil {
		return nil
	}
	viewportRect := st.offset.apply(*frameRect)

	childState := walkState{
		doc: n.ContentDoc,
		offset: frameOffset{
			dx: viewportRect.X - childDoc.ScrollX,
			dy: viewportRect.Y - childDoc.ScrollY,
		},
		parentHighlighted: st.parentHighlighted || highlighted,
		inIframe:          true,
	}
	body := r.snap.Node(n.ContentDoc, childDoc.BodyIndex)
	return r.walkChildren(body, childState, "/html/body")
}

// handleHighlighting decides whether the node gets a highlight index and,
// if rendering is on, queues its overlay box. Inside an already
// highlighted ancestor only distinct interactions earn their own index.
func (r *run) handleHighlighting(rec *NodeRecord, n *snapshot.Node, st walkState) bool {
	if st.parentHighlighted && !r.cls.isElementDistinctInteraction(st.doc, n, st.offset) {
		return false
	}
	if !rec.IsInViewport && r.settings.ViewportExpansion != Unbounded {
		return false
	}

	index := r.nextHighlight
	r.nextHighlight++
	rec.HighlightIndex = &index

	if !r.settings.HighlightElements {
		return true
	}
	if r.settings.FocusIndex >= 0 && r.settings.FocusIndex != index {
		return true
	}

	rects := r.geo.clientRects(st.doc, n.Index)
	if len(rects) == 0 {
		if rect := r.geo.boundingRect(st.doc, n.Index); rect != nil {
			rects = []snapshot.Rect{*rect}
		}
	}
	viewRects := make([]snapshot.Rect, 0, len(rects))
	for _, rect := range rects {
		viewRects = append(viewRects, st.offset.apply(rect))
	}
	if len(viewRects) == 0 {
		return true
	}

	label := strconv.Itoa(index)
	lx, ly := overlay.PlaceLabel(label, viewRects[0], r.snap.Viewport)
	r.boxes = append(r.boxes, overlay.Box{
		Index:  index,
		XPath:  rec.XPath,
		Pinned: st.inIframe || st.inShadow,
		Color:  overlay.ColorFor(index),
		Rects:  viewRects,
		Label:  overlay.Label{Text: label, X: lx, Y: ly},
	})
	return true
}

// capturesAttributes bounds memory on attribute-heavy pages: the full
// attribute map is recorded only for interactive candidates and for
// iframe/body nodes.
func (r *run) capturesAttributes(n *snapshot.Node) bool {
	if n.Name == "iframe" || n.Name == "body" {
		return true
	}
	if _, ok := r.policy.tags[n.Name]; ok {
		return true
	}
	for name, v := range n.Attrs {
		switch {
		case strings.HasPrefix(name, "on"):
			return true
		case strings.HasPrefix(name, "aria-"):
			return true
		case name == "role" || name == "tabindex" || name == "data-action":
			return true
		case name == "contenteditable" && (v == "" || strings.EqualFold(v, "true")):
			return true
		}
	}
	return false
}

func (r *run) isStructural(n *snapshot.Node) bool {
	_, ok := r.policy.structural[n.Name]
	return ok
}

// nodeXPath is a debug-only locator: tag plus arena position.
func (r *run) nodeXPath(n *snapshot.Node) string {
	return fmt.Sprintf("%s[#%d]", n.Name, n.Index)
}

func openShadow(snap *snapshot.Snapshot, doc int, n *snapshot.Node) (int, bool) {
	for _, idx := range n.Children {
		if child := snap.Node(doc, idx); child != nil && child.ShadowRoot == "open" {
			return idx, true
		}
	}
	return -1, false
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// now is stubbed in tests for deterministic envelopes.
var now = time.Now
