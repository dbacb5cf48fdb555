package data

// Path is an ordered sequence of points. Whether it is read as open
// (polyline) or closed (polygon, with an implicit last->first edge) depends
// on the caller; callers that need the distinction to be carried with the
// value use Polygon or Polyline below.
type Path []Point

// Paths is a set of Path, e.g. an outline plus its holes, or a whole layer's
// worth of wall lines.
type Paths []Path

// Polygon is a closed Path. Orientation convention: outer contours run
// counter-clockwise, holes run clockwise (see Polygon.Orientation).
type Polygon struct {
	Points Path
}

// Polyline is an open Path: start and end are distinct endpoints, there is
// no implicit closing edge.
type Polyline struct {
	Points Path
}

// NewPolygon wraps points as a closed polygon.
func NewPolygon(points Path) Polygon { return Polygon{Points: points} }

// NewPolyline wraps points as an open polyline.
func NewPolyline(points Path) Polyline { return Polyline{Points: points} }

// Area returns the signed area of the polygon (shoelace formula), in
// square micrometers. Positive for CCW, negative for CW.
func (poly Polygon) Area() float64 {
	pts := poly.Points
	if len(pts) < 3 {
		return 0
	}
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += float64(pts[i].X)*float64(pts[j].Y) - float64(pts[j].X)*float64(pts[i].Y)
	}
	return area / 2
}

// Orientation reports whether the polygon is wound counter-clockwise
// (true, the outer-contour convention) or clockwise (false, the hole
// convention).
func (poly Polygon) Orientation() bool {
	return poly.Area() >= 0
}

// Length returns the closed perimeter length of the polygon.
func (poly Polygon) Length() Micrometer {
	pts := poly.Points
	if len(pts) < 2 {
		return 0
	}
	var total Micrometer
	for i := range pts {
		j := (i + 1) % len(pts)
		total += pts[i].Dist(pts[j])
	}
	return total
}

// Length returns the open length of the polyline (sum of segment lengths,
// no closing edge).
func (pl Polyline) Length() Micrometer {
	pts := pl.Points
	var total Micrometer
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}

// PointInPolyBorder controls how PointInPolygon treats a point that lies
// exactly on an edge.
type PointInPolyBorder int

const (
	// BorderResultOutside treats on-border points as outside.
	BorderResultOutside PointInPolyBorder = iota
	// BorderResultInside treats on-border points as inside.
	BorderResultInside
)

// PointInPolygon implements the standard ray-casting test, with an explicit
// policy for points that land exactly on an edge.
func PointInPolygon(p Point, poly Polygon, border PointInPolyBorder) bool {
	pts := poly.Points
	if len(pts) < 3 {
		return false
	}
	inside := false
	j := len(pts) - 1
	for i := range pts {
		pi, pj := pts[i], pts[j]

		if onSegment(p, pi, pj) {
			return border == BorderResultInside
		}

		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xCross := float64(pj.X-pi.X)*float64(p.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(p.X) < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func onSegment(p, a, b Point) bool {
	cross := b.Sub(a).Cross(p.Sub(a))
	if cross != 0 {
		return false
	}
	minX, maxX := a.X, b.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a.Y, b.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Point
}

// NewEmptyBox returns a box with Min > Max, so the first Extend() call
// initializes it correctly regardless of point sign.
func NewEmptyBox() Box {
	return Box{
		Min: Point{X: 1 << 62, Y: 1 << 62},
		Max: Point{X: -(1 << 62), Y: -(1 << 62)},
	}
}

// Extend grows the box to also contain p.
func (b Box) Extend(p Point) Box {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	return b
}

// BoundingBox returns the AABB of the path.
func BoundingBox(path Path) Box {
	box := NewEmptyBox()
	for _, p := range path {
		box = box.Extend(p)
	}
	return box
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Contains reports whether p lies within the box, inclusive.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// LineSegmentIntersections returns the interior sub-segments of the segment
// a->b that lie inside poly (used by the geometry layer to clip e.g.
// infill lines against an outline without going through the full clipper
// boolean pipeline for a single segment).
func LineSegmentIntersections(a, b Point, poly Polygon) []Point {
	var crossings []struct {
		t float64
		p Point
	}
	pts := poly.Points
	n := len(pts)
	for i := 0; i < n; i++ {
		c, d := pts[i], pts[(i+1)%n]
		if t, u, ok := segmentIntersection(a, b, c, d); ok {
			_ = u
			crossings = append(crossings, struct {
				t float64
				p Point
			}{t, Lerp(a, b, t)})
		}
	}
	// sort by t along a->b
	for i := 1; i < len(crossings); i++ {
		for j := i; j > 0 && crossings[j].t < crossings[j-1].t; j-- {
			crossings[j], crossings[j-1] = crossings[j-1], crossings[j]
		}
	}
	result := make([]Point, len(crossings))
	for i, c := range crossings {
		result[i] = c.p
	}
	return result
}

// segmentIntersection returns the parametric positions (t along a->b, u
// along c->d) of the intersection of two segments, if one exists within
// both segments' bounds.
func segmentIntersection(a, b, c, d Point) (t, u float64, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := float64(r.Cross(s))
	if denom == 0 {
		return 0, 0, false
	}
	qp := c.Sub(a)
	t = float64(qp.Cross(s)) / denom
	u = float64(qp.Cross(r)) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}
