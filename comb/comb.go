// Package comb implements collision-avoiding travel routing (spec.md §4.4),
// grounded directly on CuraEngine's Comb class
// (original_source/src/comb.cpp): project the travel's endpoints onto the
// boundary when they fall outside it, find every boundary the straight
// line crosses, walk each crossed boundary the short way around, then prune
// the resulting point list down to the corners actually needed.
package comb

import (
	"github.com/aligator/slicecore/clip"
	"github.com/aligator/slicecore/data"
)

// boundaryMargin keeps a moved-inside point strictly inside its boundary,
// mirroring comb.cpp's use of a small constant offset (MM2INT(0.2)) to
// avoid landing exactly back on the edge.
const boundaryMargin = data.Micrometer(200) // 0.2mm

// moveInsideSearchRadius bounds how far a point may be snapped onto the
// boundary before Comber gives up (comb.cpp uses 2mm).
const moveInsideSearchRadius = data.Micrometer(2000) // 2mm

// Comber routes travel moves inside a boundary, like CuraEngine's Comb.
// A fresh Comber should be built per travel destination boundary set (the
// layer planner rebuilds it whenever the "preferred" vs "minimum" boundary
// in use changes).
type Comber struct {
	boundary []data.Path
	// hull is the convex hull of every outline point, a last-resort safe
	// region used when a point falls outside all boundaries by more than
	// moveInsideSearchRadius: hugging the hull still keeps the travel near
	// the printed model instead of giving up and forcing a retract straight
	// away (spec.md §4.4's combing-failure fallback).
	hull data.Path
}

// NewComber builds a Comber over the outlines of boundary (holes are not
// combed through: the comber keeps travels inside walls that have already
// been printed, not inside the model's holes).
func NewComber(boundary []data.LayerPart) *Comber {
	c := &Comber{}
	var allOutlinePoints data.Path
	for _, part := range boundary {
		outline := part.Outline().Points
		c.boundary = append(c.boundary, outline)
		c.boundary = append(c.boundary, part.Holes()...)
		allOutlinePoints = append(allOutlinePoints, outline...)
	}
	if len(allOutlinePoints) >= 3 {
		c.hull = clip.ConvexHull(allOutlinePoints)
	}
	return c
}

// Inside reports whether p lies inside any of the boundary paths. Outlines
// and holes are tested alike, so a point inside a hole also counts as
// inside.
func (c *Comber) Inside(p data.Point) bool {
	for _, b := range c.boundary {
		if len(b) < 3 {
			continue
		}
		if data.PointInPolygon(p, data.NewPolygon(b), data.BorderResultInside) {
			return true
		}
	}
	return false
}

// Calc attempts to route a travel from start to end through the boundary
// interior. ok is false when start and end are in different connected
// components and no route could be found (spec.md §4.4: the layer planner
// is then expected to retract, optionally Z-hop, and travel straight).
func (c *Comber) Calc(start, end data.Point) (path []data.Point, ok bool) {
	if start.Dist(end) < 1500 { // 1.5mm, mirrors comb.cpp's early-out
		return nil, true
	}

	s, e := start, end
	var addEnd bool

	if !c.Inside(s) {
		moved, found := c.moveInside(s)
		if !found {
			return nil, false
		}
		path = append(path, moved)
		s = moved
	}
	if !c.Inside(e) {
		moved, found := c.moveInside(e)
		if !found {
			return nil, false
		}
		e = moved
		addEnd = true
	}

	if !c.crossesBoundary(s, e) {
		if !addEnd && len(path) == 0 {
			return nil, true
		}
	}

	points := c.walkCrossings(s, e)
	points = append(points, end)

	var result []data.Point
	result = append(result, path...)
	last, prev := start, start
	for _, p := range points {
		if c.crossesBoundary(last, p) {
			// Need this corner; keep the previous accepted point.
			result = append(result, prev)
			last = prev
		}
		prev = p
	}
	if addEnd {
		result = append(result, end)
	}
	return result, true
}

// moveInside projects p onto the nearest boundary edge, offset slightly to
// the interior side, within moveInsideSearchRadius. Grounded on
// comb.cpp's Comb::moveInside.
func (c *Comber) moveInside(p data.Point) (data.Point, bool) {
	if best, dist, found := nearestPointOnBoundaries(c.boundary, p); found && dist < moveInsideSearchRadius*moveInsideSearchRadius {
		return best, true
	}

	if len(c.hull) >= 3 {
		if best, _, found := nearestPointOnBoundaries([]data.Path{c.hull}, p); found {
			return best, true
		}
	}

	return p, false
}

// nearestPointOnBoundaries finds the closest point lying on any edge of any
// path in boundaries, nudged slightly to the interior side. Shared by
// moveInside's normal boundary search and its convex-hull fallback.
func nearestPointOnBoundaries(boundaries []data.Path, p data.Point) (point data.Point, dist2 data.Micrometer, found bool) {
	bestDist := data.Micrometer(1)<<62 - 1
	var best data.Point

	for _, b := range boundaries {
		if len(b) < 2 {
			continue
		}
		p0 := b[len(b)-1]
		for _, p1 := range b {
			edge := p1.Sub(p0)
			lineLen := edge.Size()
			if lineLen == 0 {
				p0 = p1
				continue
			}
			distOnLine := p.Sub(p0).Dot(edge) / int64(lineLen)
			if distOnLine < 10 {
				distOnLine = 10
			}
			if distOnLine > int64(lineLen)-10 {
				distOnLine = int64(lineLen) - 10
			}
			q := p0.Add(edge.Mul(float64(distOnLine) / float64(lineLen)))

			dist := data.Micrometer(q.Sub(p).Size2())
			if dist < bestDist {
				bestDist = dist
				best = q.Add(edge.Normal(boundaryMargin).CrossZ())
				found = true
			}
			p0 = p1
		}
	}

	return best, bestDist, found
}

// crossesBoundary reports whether the segment a->b crosses any boundary
// edge, used both to decide whether combing is even necessary and to prune
// the final point list.
func (c *Comber) crossesBoundary(a, b data.Point) bool {
	for _, boundary := range c.boundary {
		n := len(boundary)
		if n < 2 {
			continue
		}
		p0 := boundary[n-1]
		for _, p1 := range boundary {
			if segmentsCross(a, b, p0, p1) {
				return true
			}
			p0 = p1
		}
	}
	return false
}

func segmentsCross(a, b, c, d data.Point) bool {
	d1 := direction(c, d, a)
	d2 := direction(c, d, b)
	d3 := direction(a, b, c)
	d4 := direction(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func direction(a, b, c data.Point) int64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// walkCrossings finds every boundary crossed on the way from start to end
// and, for each, returns the corner points needed to walk around it the
// shorter way -- the corner-following half of comb.cpp's Comb::calc.
func (c *Comber) walkCrossings(start, end data.Point) []data.Point {
	var points []data.Point

	for _, boundary := range c.boundary {
		n := len(boundary)
		if n < 3 {
			continue
		}
		minIdx, maxIdx, crossed := firstLastCrossing(boundary, start, end)
		if !crossed {
			continue
		}

		// Walk the shorter way around from minIdx to maxIdx.
		forward := (maxIdx - minIdx + n) % n
		backward := (minIdx - maxIdx + n) % n

		if forward <= backward {
			for i := minIdx; i != maxIdx; i = (i + 1) % n {
				points = append(points, cornerOffset(boundary, i))
			}
		} else {
			for i := minIdx; i != maxIdx; i = (i - 1 + n) % n {
				points = append(points, cornerOffset(boundary, i))
			}
		}
	}

	return points
}

// firstLastCrossing returns the indices of the boundary vertices nearest
// the entry and exit crossings of the start->end line, scanning with the
// line rotated onto the X axis (as comb.cpp does via PointMatrix).
func firstLastCrossing(boundary data.Path, start, end data.Point) (minIdx, maxIdx int, crossed bool) {
	n := len(boundary)
	minDist := int64(1) << 62
	maxDist := int64(-1) << 62
	found := false

	dir := end.Sub(start)
	length := dir.Size()
	if length == 0 {
		return 0, 0, false
	}

	project := func(p data.Point) int64 {
		return p.Sub(start).Dot(dir) / int64(length)
	}

	p0 := boundary[n-1]
	for i, p1 := range boundary {
		if segmentsCross(start, end, p0, p1) {
			t := project(p1)
			if t < minDist {
				minDist = t
				minIdx = i
			}
			if t > maxDist {
				maxDist = t
				maxIdx = i
			}
			found = true
		}
		p0 = p1
	}

	return minIdx, maxIdx, found
}

// cornerOffset returns boundary[idx] nudged slightly outward along the
// averaged normal of its two adjacent edges, so the comb path clears the
// corner rather than grazing it (comb.cpp's getBounderyPointWithOffset).
func cornerOffset(boundary data.Path, idx int) data.Point {
	n := len(boundary)
	p0 := boundary[(idx-1+n)%n]
	p1 := boundary[idx]
	p2 := boundary[(idx+1)%n]

	off0 := p1.Sub(p0).Normal(1000).CrossZ()
	off1 := p2.Sub(p1).Normal(1000).CrossZ()
	offset := off0.Add(off1).Normal(200)
	return p1.Add(offset)
}

// EnsureDistinctComponents reports whether exactly one of start and end
// lies inside the boundary, or whether the straight segment between them
// crosses no boundary edge.
func EnsureDistinctComponents(c *Comber, start, end data.Point) bool {
	return c.Inside(start) != c.Inside(end) || !c.crossesBoundary(start, end)
}
