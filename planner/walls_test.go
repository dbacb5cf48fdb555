package planner

import (
	"testing"

	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/optimizer/insetorder"
	"github.com/aligator/slicecore/optimizer/pathorder"
)

func junctions(pts ...data.Point) []data.ExtrusionJunction {
	out := make([]data.ExtrusionJunction, len(pts))
	for i, pt := range pts {
		out[i] = data.ExtrusionJunction{Point: pt, Width: 400}
	}
	return out
}

func TestAddWallsOrdersOuterBeforeInner(t *testing.T) {
	p := newPlanner(t)
	outer := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]
	bridge := p.Plan().PathConfigs.Bridge[data.FeatureOuterWall]

	walls := []data.ExtrusionLine{
		{InsetIndex: 1, Closed: true, Junctions: junctions(
			data.Point{X: 2000, Y: 2000}, data.Point{X: 8000, Y: 2000}, data.Point{X: 8000, Y: 8000}, data.Point{X: 2000, Y: 8000},
		)},
		{InsetIndex: 0, Closed: true, Junctions: junctions(
			data.Point{X: 0, Y: 0}, data.Point{X: 10_000, Y: 0}, data.Point{X: 10_000, Y: 10_000}, data.Point{X: 0, Y: 10_000},
		)},
	}

	p.AddTravel(data.Point{X: 0, Y: 0}, false)
	p.AddWalls(walls, outer, bridge, pathorder.SeamConfig{}, insetorder.Options{Mode: insetorder.ModePerRegion}, data.SmallFeatureSettings{}, data.ScarfSeamSettings{}, data.SpeedGradientSettings{})

	ep := p.Plan().CurrentExtruderPlan()
	if len(ep.Paths) == 0 {
		t.Fatal("expected AddWalls to emit paths")
	}
	var firstExtrusion *data.GCodePath
	for _, path := range ep.Paths {
		if !path.IsTravel() {
			firstExtrusion = path
			break
		}
	}
	if firstExtrusion == nil {
		t.Fatal("expected AddWalls to emit extrusion paths")
	}
	// The outer wall (inset 0) starts at its corner nearest the origin, so
	// its first extruded point is (10000,0); the inner wall has no such point.
	if first := firstExtrusion.Points[0]; first.X != 10_000 || first.Y != 0 {
		t.Errorf("expected the outer wall (inset 0) to print first, first extrusion went to %v", first)
	}
}

func TestAddWallStartsAtRequestedJunctionAndClosesLoop(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]
	bridge := p.Plan().PathConfigs.Bridge[data.FeatureOuterWall]

	wall := data.ExtrusionLine{Closed: true, Junctions: junctions(
		data.Point{X: 0, Y: 0}, data.Point{X: 10_000, Y: 0}, data.Point{X: 10_000, Y: 10_000}, data.Point{X: 0, Y: 10_000},
	)}

	p.AddWall(wall, 1, cfg, bridge, data.SmallFeatureSettings{}, data.ScarfSeamSettings{}, data.SpeedGradientSettings{})

	ep := p.Plan().CurrentExtruderPlan()
	var travel *data.GCodePath
	for _, path := range ep.Paths {
		if path.IsTravel() {
			travel = path
		}
	}
	if travel == nil {
		t.Fatal("expected a travel move to the wall's start vertex")
	}
	dest := travel.Points[len(travel.Points)-1]
	if dest.X != wall.Junctions[1].Point.X || dest.Y != wall.Junctions[1].Point.Y {
		t.Errorf("expected the wall to start at junction 1, travelled to %v", dest)
	}
	last := ep.Paths[len(ep.Paths)-1]
	end := last.Points[len(last.Points)-1]
	if end.X != wall.Junctions[1].Point.X || end.Y != wall.Junctions[1].Point.Y {
		t.Errorf("expected the closed wall to end back at junction 1, ended at %v", end)
	}
}

func TestAddWallAppliesSmallFeatureSpeedOverride(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]
	bridge := p.Plan().PathConfigs.Bridge[data.FeatureOuterWall]

	wall := data.ExtrusionLine{Closed: false, Junctions: junctions(
		data.Point{X: 0, Y: 0}, data.Point{X: 1000, Y: 0},
	)}
	small := data.SmallFeatureSettings{MaxLength: 100, SpeedFactor: 0.5}

	p.AddWall(wall, 0, cfg, bridge, small, data.ScarfSeamSettings{}, data.SpeedGradientSettings{})

	ep := p.Plan().CurrentExtruderPlan()
	last := ep.Paths[len(ep.Paths)-1]
	if last.Config.Speed.Speed != cfg.Speed.Speed*0.5 {
		t.Errorf("expected the small-feature speed override to apply, got %v want %v", last.Config.Speed.Speed, cfg.Speed.Speed*0.5)
	}
}

func TestAddWallScarfSeamTapersThenOverprints(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]
	bridge := p.Plan().PathConfigs.Bridge[data.FeatureOuterWall]

	wall := data.ExtrusionLine{Closed: true, Junctions: junctions(
		data.Point{X: 0, Y: 0}, data.Point{X: 10_000, Y: 0}, data.Point{X: 10_000, Y: 10_000}, data.Point{X: 0, Y: 10_000},
	)}
	// Long enough to cover the first edge (0,0)->(10000,0) so that edge
	// tapers, then the rest of the wall prints normally.
	scarf := data.ScarfSeamSettings{Enabled: true, Length: 15, StartRatio: 0.2, MaxZOffset: 0.1}
	scarfEnd := data.Point{X: 10_000, Y: 0}

	p.AddWall(wall, 0, cfg, bridge, data.SmallFeatureSettings{}, scarf, data.SpeedGradientSettings{})

	ep := p.Plan().CurrentExtruderPlan()

	var taperedToEnd, fullToEnd int
	for _, path := range ep.Paths {
		if path.IsTravel() || len(path.Points) == 0 {
			continue
		}
		last := path.Points[len(path.Points)-1].To2D()
		if last != scarfEnd {
			continue
		}
		switch {
		case path.Config.LineWidth < cfg.LineWidth:
			taperedToEnd++
		case path.Config.LineWidth == cfg.LineWidth:
			fullToEnd++
		}
	}
	if taperedToEnd == 0 {
		t.Error("expected a tapered (narrower-than-full-width) extrusion over the scarf region")
	}
	if fullToEnd == 0 {
		t.Error("expected a full-width overprint pass re-extruding the scarf region")
	}

	for _, path := range ep.Paths {
		if !path.IsTravel() && path.Flow != 1 {
			t.Errorf("expected flow to stay at 1 everywhere, scarf ramps line width instead, got %v", path.Flow)
		}
	}
}

func TestWallJunctionOrderClosedWrapsAndReturnsToStart(t *testing.T) {
	order := wallJunctionOrder(4, 2, true)
	want := []int{2, 3, 0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("wallJunctionOrder() = %v, want length %d", order, len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("wallJunctionOrder()[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestWallJunctionOrderOpenFromEndReversesWalk(t *testing.T) {
	order := wallJunctionOrder(3, 2, false)
	want := []int{2, 1, 0}
	if len(order) != len(want) {
		t.Fatalf("wallJunctionOrder() = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("wallJunctionOrder()[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestSpeedGradientFactorRampsUpAtStart(t *testing.T) {
	g := data.SpeedGradientSettings{AccelerateLength: 10, StartSpeedRatio: 0.2}
	factor := speedGradientFactor(5000, 100_000, g)
	if factor <= 0.2 || factor >= 1 {
		t.Errorf("speedGradientFactor() = %v, want a value strictly between StartSpeedRatio and 1 mid-ramp", factor)
	}
}

func TestSpeedGradientFactorFullSpeedAwayFromEnds(t *testing.T) {
	g := data.SpeedGradientSettings{AccelerateLength: 1, DecelerateLength: 1, StartSpeedRatio: 0.2, EndSpeedRatio: 0.2}
	factor := speedGradientFactor(50_000, 100_000, g)
	if factor != 1 {
		t.Errorf("speedGradientFactor() = %v, want 1 away from both ramps", factor)
	}
}

func TestSegmentIsBridgedFalseWithoutBridgeMask(t *testing.T) {
	p := newPlanner(t)
	wall := data.ExtrusionLine{Junctions: junctions(data.Point{X: 0, Y: 0}, data.Point{X: 1000, Y: 0})}
	if p.segmentIsBridged(wall) {
		t.Error("expected no bridge mask to mean no wall is bridged")
	}
}
