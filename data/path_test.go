package data

import "testing"

func square(side Micrometer) Polygon {
	return NewPolygon(Path{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	})
}

func TestPolygonAreaAndOrientation(t *testing.T) {
	ccw := square(1000)
	if area := ccw.Area(); area <= 0 {
		t.Errorf("expected positive area for CCW square, got %v", area)
	}
	if !ccw.Orientation() {
		t.Error("expected CCW square to report outer orientation")
	}

	cw := NewPolygon(Path{{X: 0, Y: 0}, {X: 0, Y: 1000}, {X: 1000, Y: 1000}, {X: 1000, Y: 0}})
	if area := cw.Area(); area >= 0 {
		t.Errorf("expected negative area for CW square, got %v", area)
	}
	if cw.Orientation() {
		t.Error("expected CW square to report hole orientation")
	}
}

func TestPolygonLength(t *testing.T) {
	poly := square(1000)
	if got := poly.Length(); got != 4000 {
		t.Errorf("Length() = %v, want 4000", got)
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := square(1000)

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{500, 500}, true},
		{"outside", Point{2000, 500}, false},
		{"corner", Point{0, 0}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := PointInPolygon(c.p, poly, BorderResultOutside); got != c.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", c.p, got, c.want)
			}
		})
	}

	if !PointInPolygon(Point{0, 500}, poly, BorderResultInside) {
		t.Error("expected on-edge point to be inside with BorderResultInside")
	}
	if PointInPolygon(Point{0, 500}, poly, BorderResultOutside) {
		t.Error("expected on-edge point to be outside with BorderResultOutside")
	}
}

func TestBoxExtendAndContains(t *testing.T) {
	box := NewEmptyBox()
	box = box.Extend(Point{10, 20})
	box = box.Extend(Point{-5, 30})

	if box.Min != (Point{-5, 20}) {
		t.Errorf("Min = %v, want {-5 20}", box.Min)
	}
	if box.Max != (Point{10, 30}) {
		t.Errorf("Max = %v, want {10 30}", box.Max)
	}
	if !box.Contains(Point{0, 25}) {
		t.Error("expected box to contain interior point")
	}
	if box.Contains(Point{100, 100}) {
		t.Error("expected box to not contain far point")
	}
}

func TestLineSegmentIntersections(t *testing.T) {
	poly := square(1000)
	crossings := LineSegmentIntersections(Point{-500, 500}, Point{1500, 500}, poly)

	if len(crossings) != 2 {
		t.Fatalf("expected 2 crossings, got %d: %v", len(crossings), crossings)
	}
	if crossings[0].X > crossings[1].X {
		t.Errorf("expected crossings sorted by t along the segment, got %v", crossings)
	}
}
