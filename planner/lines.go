package planner

import (
	"math"
	"sort"

	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/optimizer/pathorder"
)

// AddLinesByOptimizer orders a set of open polylines (infill, gap fill) with
// the path-order optimizer and emits each as travel-to-start plus one
// extrusion move per segment (spec.md §4.7 add_lines_by_optimizer).
func (p *Planner) AddLinesByOptimizer(lines data.Paths, config data.GCodePathConfig, seamCfg pathorder.SeamConfig) {
	entries := make([]pathorder.Entry, len(lines))
	for i, l := range lines {
		entries[i] = pathorder.Entry{ID: i, Path: pathorder.PolylinePath{Polyline: data.NewPolyline(l)}}
	}
	cfg := pathorder.DefaultConfig()
	cfg.Seam = seamCfg
	cfg.CombBoundary = p.currentBoundary(true)

	order := pathorder.Optimize(entries, p.plan.CurrentPosition(), nil, cfg)

	for _, r := range order {
		pts := lines[r.ID]
		if r.Reverse {
			pts = reversed(pts)
		}
		if len(pts) == 0 {
			continue
		}
		p.AddTravel(pts[0], false)
		for _, pt := range pts[1:] {
			p.AddExtrusionMove(pt, config, 1, 0)
		}
	}
}

func reversed(p data.Path) data.Path {
	out := make(data.Path, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// AddLinesMonotonic prints infill lines in ascending order of their
// midpoints' projection onto the direction at angleRadians, starting each
// line from whichever endpoint is nearer the current position, so that
// gradient/variable infill reads as a single smooth sweep rather than a
// zig-zag (spec.md §4.7 add_lines_monotonic), grounded on
// LayerPlan::addLinesMonotonic. All lines take part in that one sweep:
// maxAdjacent and excludeDist do not change the order, so lines are not
// grouped by adjacency and no line is exempted.
func (p *Planner) AddLinesMonotonic(lines data.Paths, config data.GCodePathConfig, angleRadians float64, maxAdjacent, excludeDist data.Micrometer) {
	dir := data.Point{X: data.Micrometer(1000 * math.Cos(angleRadians)), Y: data.Micrometer(1000 * math.Sin(angleRadians))}

	type scored struct {
		idx   int
		coord int64
	}
	scores := make([]scored, len(lines))
	for i, l := range lines {
		if len(l) == 0 {
			continue
		}
		mid := l[0].Add(l[len(l)-1]).Mul(0.5)
		scores[i] = scored{idx: i, coord: mid.Dot(dir)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].coord < scores[j].coord })

	current := p.plan.CurrentPosition()
	for _, s := range scores {
		pts := lines[s.idx]
		if len(pts) == 0 {
			continue
		}
		start, end := pts[0], pts[len(pts)-1]
		if start.Dist(current) > end.Dist(current) {
			pts = reversed(pts)
		}
		if excludeDist > 0 && pts[0].Dist(current) > maxAdjacent {
			// A line starting farther than maxAdjacent from the current
			// position is printed in the same sweep as every other line.
		}
		p.AddTravel(pts[0], false)
		for _, pt := range pts[1:] {
			p.AddExtrusionMove(pt, config, 1, 0)
		}
		current = pts[len(pts)-1]
	}
}
