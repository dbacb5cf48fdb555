package data

// LayerPart is one connected region of a layer: an outer outline plus any
// holes fully enclosed by it. It is the unit the geometry/clip layer
// produces and the one the wall/skin/infill generators (out of scope here,
// consumed as already-computed input) operate on.
type LayerPart struct {
	outline Polygon
	holes   Paths
}

// NewLayerPart builds a LayerPart from an outline and its holes.
func NewLayerPart(outline Path, holes Paths) LayerPart {
	return LayerPart{outline: NewPolygon(outline), holes: holes}
}

// Outline returns the outer contour of the part.
func (p LayerPart) Outline() Polygon { return p.outline }

// Holes returns the hole contours of the part.
func (p LayerPart) Holes() Paths { return p.holes }

// PartitionedLayer is a full layer already split into disjoint LayerParts,
// plus arbitrary attributes attached by earlier pipeline stages (bridge
// masks, support flags, ...). Mirrors GoSlice's data.PartitionedLayer.
type PartitionedLayer interface {
	LayerParts() []LayerPart
	Attributes() map[string]interface{}
}

type partitionedLayer struct {
	parts      []LayerPart
	attributes map[string]interface{}
}

// NewPartitionedLayer wraps parts with an empty attribute set.
func NewPartitionedLayer(parts []LayerPart) PartitionedLayer {
	return &partitionedLayer{parts: parts, attributes: map[string]interface{}{}}
}

func (l *partitionedLayer) LayerParts() []LayerPart            { return l.parts }
func (l *partitionedLayer) Attributes() map[string]interface{} { return l.attributes }

// ExtrusionLine is a variable-width wall toolpath: each vertex carries its
// own target line width, produced externally by the skeletal-trapezoidation
// wall generator (out of scope, consumed as input).
type ExtrusionLine struct {
	InsetIndex int
	Closed     bool
	Junctions  []ExtrusionJunction
	// RegionID groups lines that come from the same enclosing outline, used
	// by the inset-order optimizer's per-region mode.
	RegionID int
	// IsOdd marks "odd gap filler" lines that always print after their
	// enclosing even walls (spec.md 4.6).
	IsOdd bool
}

// ExtrusionJunction is one vertex of a variable-width wall.
type ExtrusionJunction struct {
	Point Point
	Width Micrometer
}

// Points returns the plain polyline/polygon points of the wall, discarding
// width, for uses that only need the path shape (e.g. path-order distance).
func (e ExtrusionLine) Points() Path {
	pts := make(Path, len(e.Junctions))
	for i, j := range e.Junctions {
		pts[i] = j.Point
	}
	return pts
}

// Length returns the total length of the wall (closed or open per e.Closed).
func (e ExtrusionLine) Length() Micrometer {
	pts := e.Points()
	if e.Closed {
		return NewPolygon(pts).Length()
	}
	return NewPolyline(pts).Length()
}
