// Package overlay draws numbered highlight boxes over analyzed elements.
// The Go side decides what to draw (rects, colors, label placement); a
// small injected script owns the DOM it creates, keeps it positioned on
// scroll/resize, and registers an idempotent cleanup closure on the page.
package overlay

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

//go:embed overlay.js
var overlayJS string

// ContainerID is the fixed id of the singleton overlay container.
// Kept in sync with overlay.js and the analyzer's self-capture guard.
const ContainerID = "domscan-highlight-container"

// palette cycles by highlight index so colors stay stable within a run.
var palette = []string{
	"#FF5D5D", "#3B82F6", "#22C55E", "#F59E0B",
	"#A855F7", "#14B8A6", "#EF4444", "#6366F1",
	"#84CC16", "#EC4899", "#0EA5E9", "#F97316",
}

// ColorFor returns the palette color for a highlight index.
func ColorFor(index int) string {
	return palette[index%len(palette)]
}

// Box is one highlight to draw: every client rect of the element gets a
// tinted border box, plus a single numeric label. Rects are in viewport
// coordinates. Pinned boxes belong to iframe or shadow-root elements
// whose xpath does not resolve from the top document; they stay where
// they were drawn instead of following scroll.
type Box struct {
	Index  int             `json:"index"`
	XPath  string          `json:"xpath"`
	Pinned bool            `json:"pinned"`
	Color  string          `json:"color"`
	Rects  []snapshot.Rect `json:"rects"`
	Label  Label           `json:"label"`
}

// Label is the numeric badge position in viewport coordinates.
type Label struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Approximate badge metrics, matching the styles in overlay.js.
const (
	labelHeight   = 16.0
	labelPadding  = 8.0
	labelCharWide = 8.0
)

// LabelSize estimates the rendered badge box for a label text.
func LabelSize(text string) (w, h float64) {
	return float64(len(text))*labelCharWide + labelPadding, labelHeight
}

// PlaceLabel positions a label at the top-right inside the element's first
// rect, flips it above the rect when the rect cannot contain it, then
// clamps the result to the viewport.
func PlaceLabel(text string, rect, viewport snapshot.Rect) (x, y float64) {
	w, h := LabelSize(text)

	x = rect.X + rect.Width - w - 2
	y = rect.Y + 2
	if rect.Width < w+4 || rect.Height < h+4 {
		x = rect.X + rect.Width - w
		y = rect.Y - h - 2
	}

	if x < 0 {
		x = 0
	}
	if max := viewport.Width - w; x > max && max >= 0 {
		x = max
	}
	if y < 0 {
		y = 0
	}
	if max := viewport.Height - h; y > max && max >= 0 {
		y = max
	}
	return x, y
}

type payload struct {
	ContainerID string `json:"containerId"`
	Boxes       []Box  `json:"boxes"`
}

// Render injects the overlay script with the given boxes. The script is
// additive: a second render without cleanup stacks on top of the first.
func Render(ctx context.Context, page *rod.Page, boxes []Box) error {
	if len(boxes) == 0 {
		return nil
	}
	_, err := page.Context(ctx).Eval(overlayJS, payload{ContainerID: ContainerID, Boxes: boxes})
	if err != nil {
		return fmt.Errorf("overlay: render: %w", err)
	}
	return nil
}

// cleanupJS runs every registered cleanup closure and removes the
// container. Safe to run with no overlays present, and safe to run twice.
const cleanupJS = `() => {
	const fns = window.__domscanCleanup || [];
	window.__domscanCleanup = [];
	for (const fn of fns) {
		try { fn(); } catch (e) {}
	}
	const c = document.getElementById("domscan-highlight-container");
	if (c) c.remove();
}`

// Cleanup tears down all overlays created by previous renders. Idempotent;
// a no-op when nothing was rendered.
func Cleanup(ctx context.Context, page *rod.Page) error {
	_, err := page.Context(ctx).Eval(cleanupJS)
	if err != nil {
		return fmt.Errorf("overlay: cleanup: %w", err)
	}
	return nil
}
