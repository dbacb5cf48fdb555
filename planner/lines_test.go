package planner

import (
	"testing"

	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/optimizer/pathorder"
)

func TestAddLinesByOptimizerVisitsNearestFirst(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureInfill]
	p.AddTravel(data.Point{X: 0, Y: 0}, false)

	lines := data.Paths{
		{{X: 100_000, Y: 0}, {X: 100_000, Y: 1000}},
		{{X: 1000, Y: 0}, {X: 1000, Y: 1000}},
	}

	p.AddLinesByOptimizer(lines, cfg, pathorder.SeamConfig{})

	ep := p.Plan().CurrentExtruderPlan()
	var travels []*data.GCodePath
	for _, path := range ep.Paths {
		if path.IsTravel() {
			travels = append(travels, path)
		}
	}
	if len(travels) == 0 {
		t.Fatal("expected at least one travel move between lines")
	}
	first := travels[0].Points[len(travels[0].Points)-1]
	if first.X != 1000 {
		t.Errorf("expected the nearer line to be visited first, first travel landed at x=%v", first.X)
	}
}

func TestReversedFlipsPointOrder(t *testing.T) {
	in := data.Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	out := reversed(in)
	if out[0] != in[2] || out[2] != in[0] {
		t.Errorf("reversed() = %v, want endpoints swapped", out)
	}
}

func TestAddLinesMonotonicOrdersAlongScanAxis(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureInfill]
	p.AddTravel(data.Point{X: 0, Y: 0}, false)

	lines := data.Paths{
		{{X: 10_000, Y: 0}, {X: 10_000, Y: 5000}},
		{{X: 1000, Y: 0}, {X: 1000, Y: 5000}},
	}

	p.AddLinesMonotonic(lines, cfg, 0, 50_000, 0)

	ep := p.Plan().CurrentExtruderPlan()
	var travels []*data.GCodePath
	for _, path := range ep.Paths {
		if path.IsTravel() {
			travels = append(travels, path)
		}
	}
	if len(travels) == 0 {
		t.Fatal("expected travel moves between infill lines")
	}
	first := travels[0].Points[len(travels[0].Points)-1]
	if first.X != 1000 {
		t.Errorf("expected the monotonic scan to start at the smaller x coordinate, got x=%v", first.X)
	}
}

func TestAddLinesMonotonicChoosesCloserEndpoint(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureInfill]
	p.AddTravel(data.Point{X: 1000, Y: 5000}, false)

	lines := data.Paths{
		{{X: 1000, Y: 0}, {X: 1000, Y: 5000}},
	}

	p.AddLinesMonotonic(lines, cfg, 0, 50_000, 0)

	ep := p.Plan().CurrentExtruderPlan()
	last := ep.Paths[len(ep.Paths)-1]
	lastPoint := last.Points[len(last.Points)-1]
	if lastPoint.Y != 0 {
		t.Errorf("expected the line to be reversed to start from the nearer endpoint, final point %v", lastPoint)
	}
}
