package snapshot

import "testing"

func TestRect_Empty(t *testing.T) {
	cases := []struct {
		name string
		r    Rect
		want bool
	}{
		{"zero", Rect{}, true},
		{"no_width", Rect{X: 1, Y: 1, Height: 5}, true},
		{"no_height", Rect{X: 1, Y: 1, Width: 5}, true},
		{"negative", Rect{Width: -3, Height: 4}, true},
		{"real", Rect{Width: 3, Height: 4}, false},
	}
	for _, tc := range cases {
		if got := tc.r.Empty(); got != tc.want {
			t.Errorf("%s: Empty() got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}

	if !r.Contains(10, 10) || !r.Contains(30, 30) || !r.Contains(20, 20) {
		t.Errorf("Contains should include edges and the interior")
	}
	if r.Contains(9, 20) || r.Contains(20, 31) {
		t.Errorf("Contains should exclude outside points")
	}
}

func TestRect_Intersects(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	if !r.Intersects(Rect{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Errorf("overlapping rects should intersect")
	}
	if r.Intersects(Rect{X: 10, Y: 0, Width: 5, Height: 5}) {
		t.Errorf("edge-touching rects should not intersect")
	}
	if r.Intersects(Rect{X: 20, Y: 20, Width: 5, Height: 5}) {
		t.Errorf("disjoint rects should not intersect")
	}
}

func TestRect_Translate(t *testing.T) {
	got := Rect{X: 1, Y: 2, Width: 3, Height: 4}.Translate(10, -2)
	want := Rect{X: 11, Y: 0, Width: 3, Height: 4}
	if got != want {
		t.Errorf("Translate: got %+v, want %+v", got, want)
	}
}

func TestRect_Union(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}

	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 30, Height: 15}
	if got != want {
		t.Errorf("Union: got %+v, want %+v", got, want)
	}

	if got := (Rect{}).Union(b); got != b {
		t.Errorf("zero Union b: got %+v, want %+v", got, b)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("a Union zero: got %+v, want %+v", got, a)
	}
}
