package snapshot

// Rect is an axis-aligned box in CSS pixels. Depending on context it is
// expressed in document space (as captured) or viewport space (after the
// analyzer applies scroll and frame offsets).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) falls inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether two rects overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Translate returns the rect shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Union returns the smallest rect covering both r and o. A zero rect on
// either side yields the other unchanged.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
