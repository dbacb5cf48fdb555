// Package clip provides polygon set operations (union, difference,
// intersection, offset) and a convex-hull fallback, backed by the external
// clipper and convex-hull libraries GoSlice already depends on. This is
// component C1's set-operation half; data/path.go carries the pure
// primitives (orientation, area, point-in-polygon) that don't need an
// external library.
package clip

import (
	clipper "github.com/aligator/go.clipper"
	convexHull "github.com/furstenheim/go-convex-hull-2d"

	"github.com/aligator/slicecore/data"
)

// Clipper provides the boolean and offset operations C1 requires. Kept as
// an interface, like GoSlice's clip.Clipper, so layer-plan/comb tests can
// substitute a fake.
type Clipper interface {
	Union(a, b []data.LayerPart) ([]data.LayerPart, bool)
	Difference(a, b []data.LayerPart) ([]data.LayerPart, bool)
	Intersection(a, b []data.LayerPart) ([]data.LayerPart, bool)

	// Offset insets (negative offset) or outsets (positive offset) the
	// given parts by offset micrometers, returning the resulting (possibly
	// split or merged) parts.
	Offset(parts []data.LayerPart, offset data.Micrometer) ([]data.LayerPart, bool)

	// InsetLayer computes insetCount successive insets of offset each,
	// mirroring GoSlice's clip.Clipper.InsetLayer: result[part][insetNr] is
	// the parts produced by that inset ring.
	InsetLayer(layer []data.LayerPart, offset data.Micrometer, insetCount int) [][][]data.LayerPart
}

type clipperClipper struct{}

// NewClipper returns the default Clipper implementation.
func NewClipper() Clipper { return clipperClipper{} }

func toClipperPoint(p data.Point) *clipper.IntPoint {
	return &clipper.IntPoint{X: clipper.CInt(p.X), Y: clipper.CInt(p.Y)}
}

func toClipperPath(p data.Path) clipper.Path {
	result := make(clipper.Path, 0, len(p))
	for _, pt := range p {
		result = append(result, toClipperPoint(pt))
	}
	return result
}

func toClipperPaths(p data.Paths) clipper.Paths {
	result := make(clipper.Paths, 0, len(p))
	for _, path := range p {
		result = append(result, toClipperPath(path))
	}
	return result
}

func fromClipperPoint(p *clipper.IntPoint) data.Point {
	return data.NewPoint(data.Micrometer(p.X), data.Micrometer(p.Y))
}

func fromClipperPath(p clipper.Path) data.Path {
	result := make(data.Path, 0, len(p))
	for _, pt := range p {
		result = append(result, fromClipperPoint(pt))
	}
	return result
}

func partsToClipperPaths(parts []data.LayerPart) clipper.Paths {
	var result clipper.Paths
	for _, part := range parts {
		result = append(result, toClipperPath(part.Outline().Points))
		result = append(result, toClipperPaths(part.Holes())...)
	}
	return result
}

// polyTreeToParts walks a clipper.PolyTree's top-level contours (outer
// islands) and their immediate children (holes), recursing into
// grandchildren as new top-level islands, exactly like GoSlice's
// polyTreeToLayerParts.
func polyTreeToParts(tree *clipper.PolyTree) []data.LayerPart {
	var parts []data.LayerPart
	queue := append([]*clipper.PolyNode{}, tree.Childs()...)

	for len(queue) > 0 {
		round := queue
		queue = nil

		for _, node := range round {
			var holes data.Paths
			for _, child := range node.Childs() {
				holes = append(holes, fromClipperPath(child.Contour()))
				queue = append(queue, child.Childs()...)
			}
			parts = append(parts, data.NewLayerPart(fromClipperPath(node.Contour()), holes))
		}
	}

	return parts
}

func (c clipperClipper) boolOp(op clipper.ClipType, a, b []data.LayerPart) ([]data.LayerPart, bool) {
	cl := clipper.NewClipper(clipper.IoNone)
	cl.AddPaths(partsToClipperPaths(a), clipper.PtSubject, true)
	if len(b) > 0 {
		cl.AddPaths(partsToClipperPaths(b), clipper.PtClip, true)
	}
	tree, ok := cl.Execute2(op, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return nil, false
	}
	return polyTreeToParts(tree), true
}

func (c clipperClipper) Union(a, b []data.LayerPart) ([]data.LayerPart, bool) {
	return c.boolOp(clipper.CtUnion, a, b)
}

func (c clipperClipper) Difference(a, b []data.LayerPart) ([]data.LayerPart, bool) {
	return c.boolOp(clipper.CtDifference, a, b)
}

func (c clipperClipper) Intersection(a, b []data.LayerPart) ([]data.LayerPart, bool) {
	return c.boolOp(clipper.CtIntersection, a, b)
}

func (c clipperClipper) Offset(parts []data.LayerPart, offset data.Micrometer) ([]data.LayerPart, bool) {
	o := clipper.NewClipperOffset()
	o.MiterLimit = 2
	for _, part := range parts {
		o.AddPaths(clipper.Paths{toClipperPath(part.Outline().Points)}, clipper.JtSquare, clipper.EtClosedPolygon)
		o.AddPaths(toClipperPaths(part.Holes()), clipper.JtSquare, clipper.EtClosedPolygon)
	}
	tree := o.Execute2(float64(offset))
	return polyTreeToParts(tree), true
}

func (c clipperClipper) InsetLayer(layer []data.LayerPart, offset data.Micrometer, insetCount int) [][][]data.LayerPart {
	result := make([][][]data.LayerPart, len(layer))
	for i, part := range layer {
		result[i] = c.inset(part, offset, insetCount)
	}
	return result
}

func (c clipperClipper) inset(part data.LayerPart, offset data.Micrometer, insetCount int) [][]data.LayerPart {
	insets := make([][]data.LayerPart, 0, insetCount)
	o := clipper.NewClipperOffset()
	o.MiterLimit = 2

	for insetNr := 0; insetNr < insetCount; insetNr++ {
		o.Clear()
		o.AddPaths(clipper.Paths{toClipperPath(part.Outline().Points)}, clipper.JtSquare, clipper.EtClosedPolygon)
		o.AddPaths(toClipperPaths(part.Holes()), clipper.JtSquare, clipper.EtClosedPolygon)

		delta := -float64(offset)*float64(insetNr) - float64(offset)/2
		tree := o.Execute2(delta)
		insets = append(insets, polyTreeToParts(tree))
	}

	return insets
}

// hullPoint adapts a data.Point to the (X, Y float64) interface the
// convex-hull-2d library expects of its input points.
type hullPoint struct{ x, y float64 }

func (h hullPoint) GetX() float64 { return h.x }
func (h hullPoint) GetY() float64 { return h.y }

// ConvexHull returns the convex hull of path, used by the comber (C5) as a
// last-resort safe travel region when no enclosing boundary part is found
// for a point (spec.md §4.4 "if routing fails... signal to retract" -- the
// hull lets a nearby-points fallback avoid that worst case when the points
// came from the same printed wall).
func ConvexHull(path data.Path) data.Path {
	if len(path) < 3 {
		return path
	}
	pts := make([]convexHull.Point, len(path))
	for i, p := range path {
		pts[i] = hullPoint{x: float64(p.X), y: float64(p.Y)}
	}
	hull := convexHull.ComputeHull(pts)
	result := make(data.Path, len(hull))
	for i, p := range hull {
		result[i] = data.NewPoint(data.Micrometer(p.GetX()), data.Micrometer(p.GetY()))
	}
	return result
}

// ToOneDimension flattens a [][]data.LayerPart (e.g. the per-inset result
// of InsetLayer) into a single slice, mirroring GoSlice's
// data.InsetLayerResult.ToOneDimension used throughout modifier/support.go.
func ToOneDimension(insets [][]data.LayerPart) []data.LayerPart {
	var result []data.LayerPart
	for _, ring := range insets {
		result = append(result, ring...)
	}
	return result
}
