package planner

import (
	"testing"

	"github.com/aligator/slicecore/data"
)

func testSettings() *data.Settings {
	return &data.Settings{
		Print: data.PrintSettings{
			LayerThickness: 0.2,
			WallLineWidth:  0.4,
			SkinLineWidth:  0.4,
			WallSpeed:      data.SpeedDerivatives{Speed: 60},
			SkinSpeed:      data.SpeedDerivatives{Speed: 60},
			InfillSpeed:    data.SpeedDerivatives{Speed: 80},
			TravelSpeed:    data.SpeedDerivatives{Speed: 150},
			Retraction:     data.RetractionSettings{Enabled: true, Amount: 5, Speed: 40, MinTravel: 1},
			Combing:        data.CombingSettings{Enabled: true},
		},
	}
}

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	settings := testSettings()
	configs := data.NewPathConfigTable(settings, 1, 200_000, map[int]data.Ratio{0: 1})
	p := New(1, 200_000, 200_000, configs, 0, settings)
	fan := data.FanSettings{}
	retraction := settings.Print.Retraction
	p.SetExtruder(0, false, false, fan, retraction)
	return p
}

func TestAddExtrusionMoveCoalescesMatchingConfig(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]

	p.AddExtrusionMove(data.Point{X: 1000, Y: 0}, cfg, 1, 0)
	p.AddExtrusionMove(data.Point{X: 2000, Y: 0}, cfg, 1, 0)

	ep := p.Plan().CurrentExtruderPlan()
	if len(ep.Paths) != 1 {
		t.Fatalf("expected both moves to coalesce onto one path, got %d paths", len(ep.Paths))
	}
	if len(ep.Paths[0].Points) != 2 {
		t.Errorf("expected 2 points on the coalesced path, got %d", len(ep.Paths[0].Points))
	}
}

func TestForceNewPathStartPreventsCoalescing(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]

	p.AddExtrusionMove(data.Point{X: 1000, Y: 0}, cfg, 1, 0)
	p.ForceNewPathStart()
	p.AddExtrusionMove(data.Point{X: 2000, Y: 0}, cfg, 1, 0)

	ep := p.Plan().CurrentExtruderPlan()
	if len(ep.Paths) != 2 {
		t.Errorf("expected forced new path to prevent coalescing, got %d paths", len(ep.Paths))
	}
}

func TestAddTravelCommitsPosition(t *testing.T) {
	p := newPlanner(t)
	p.AddTravel(data.Point{X: 5000, Y: 5000}, false)

	pos := p.Plan().CurrentPosition()
	if pos != (data.Point{X: 5000, Y: 5000}) {
		t.Errorf("CurrentPosition() = %v, want {5000 5000}", pos)
	}
}

func TestAddTravelShortMoveSkipsRetract(t *testing.T) {
	p := newPlanner(t)
	p.AddTravel(data.Point{X: 100, Y: 0}, false)

	ep := p.Plan().CurrentExtruderPlan()
	if len(ep.Paths) != 1 {
		t.Fatalf("expected one travel path, got %d", len(ep.Paths))
	}
	if ep.Paths[0].Retract {
		t.Error("a short travel under min-travel distance should not force a retract")
	}
}

func TestAddTravelLongMoveForcesRetract(t *testing.T) {
	p := newPlanner(t)
	p.AddTravel(data.Point{X: 50_000, Y: 0}, false)

	ep := p.Plan().CurrentExtruderPlan()
	if !ep.Paths[0].Retract {
		t.Error("a long travel beyond min-travel distance should retract")
	}
}

func TestSetExtruderReportsSwitch(t *testing.T) {
	p := newPlanner(t)
	switched := p.SetExtruder(0, false, false, data.FanSettings{}, data.RetractionSettings{})
	if switched {
		t.Error("setting the already-active extruder should not report a switch")
	}

	switched = p.SetExtruder(1, false, false, data.FanSettings{}, data.RetractionSettings{})
	if !switched {
		t.Error("switching to a new extruder should report a switch")
	}
}

func TestAddPolygonClosesLoop(t *testing.T) {
	p := newPlanner(t)
	cfg := p.Plan().PathConfigs.ByFeature[data.FeatureOuterWall]
	square := data.NewPolygon(data.Path{
		{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000},
	})

	p.AddPolygon(square, 0, cfg, 0)

	ep := p.Plan().CurrentExtruderPlan()
	if len(ep.Paths) == 0 {
		t.Fatal("expected at least a travel and an extrusion path")
	}
	last := ep.Paths[len(ep.Paths)-1]
	lastPoint := last.Points[len(last.Points)-1]
	if lastPoint.X != 0 || lastPoint.Y != 0 {
		t.Errorf("expected the polygon to close back to its start, got %v", lastPoint)
	}
}
