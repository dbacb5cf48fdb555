package planner

import "github.com/aligator/slicecore/data"

// SpiralizeWallSlice emits a single outer wall as a continuous spiral: Z
// climbs linearly from the previous layer's wall to this layer's wall over
// the course of one trip around the polygon, so no layer boundary (and no
// visible seam) appears at all (spec.md §4.7 spiralize_wall_slice).
// previous may be nil for the first spiralized layer, in which case no
// ramp is applied and the wall just starts at this layer's Z.
func (p *Planner) SpiralizeWallSlice(wall data.Polygon, previous *data.Polygon, config data.GCodePathConfig, seamIdx int) {
	n := len(wall.Points)
	if n == 0 {
		return
	}

	start := wall.Points[seamIdx%n]
	startZ := p.plan.Z - p.plan.LayerThickness
	if previous == nil {
		startZ = p.plan.Z
	}

	p.ForceNewPathStart()
	p.AddTravel(start, false)

	ep := p.plan.CurrentExtruderPlan()
	path := p.currentOrNewExtrusionPath(ep, config)
	path.Add(data.Point3{X: start.X, Y: start.Y, Z: startZ})

	for i := 1; i <= n; i++ {
		idx := (seamIdx + i) % n
		t := float64(i) / float64(n)
		to := wall.Points[idx]
		z := startZ + data.Micrometer(t*float64(p.plan.Z-startZ))

		if previous != nil {
			to = blendTowardPrevious(to, *previous, idx, t)
		}

		path.Add(data.Point3{X: to.X, Y: to.Y, Z: z})
	}

	p.commitPosition(wall.Points[seamIdx%n])
}

// blendTowardPrevious interpolates a point on the current layer's wall
// toward the corresponding point on the previous layer's wall, weighted by
// how far along the spiral we are -- the standard trick for keeping the
// very start of the spiral from jumping radially before Z has climbed at
// all. t=0 favors the previous wall entirely, t=1 is the current wall.
func blendTowardPrevious(current data.Point, previous data.Polygon, idx int, t float64) data.Point {
	if len(previous.Points) == 0 {
		return current
	}
	prevIdx := idx % len(previous.Points)
	return data.Lerp(previous.Points[prevIdx], current, t)
}
