package planbuffer

import (
	"testing"

	"github.com/aligator/slicecore/data"
)

func bufferSettings() *data.Settings {
	return &data.Settings{
		Extruders: []data.ExtruderSettings{
			{ID: 0, StandbyTemperature: 150, HeatUpRate: 2},
		},
		Print: data.PrintSettings{
			Cooling: data.CoolingSettings{MinLayerTime: 5},
		},
	}
}

func travelConfig() data.GCodePathConfig {
	return data.NewGCodePathConfig(data.FeatureTravel, 0, 0, 0, data.SpeedDerivatives{Speed: 150})
}

func extrusionConfig() data.GCodePathConfig {
	return data.NewGCodePathConfig(data.FeatureOuterWall, 400, 200, 1, data.SpeedDerivatives{Speed: 60})
}

func planWithTravel(layerIdx int, extruder int, travelTime float64) *data.LayerPlan {
	plan := data.NewLayerPlan(layerIdx, data.Micrometer(layerIdx*200_000), 200_000, nil, extruder)
	ep := data.NewExtruderPlan(extruder, layerIdx, false, false, 200_000, data.FanSettings{}, data.RetractionSettings{})
	path := data.NewGCodePath(travelConfig())
	path.Add(data.Point3{X: 0, Y: 0, Z: plan.Z})
	path.Estimates.Add(data.FeatureTravel, travelTime, 0)
	ep.Estimates.Add(data.FeatureTravel, travelTime, 0)
	ep.Paths = append(ep.Paths, path)
	plan.ExtruderPlans = append(plan.ExtruderPlans, ep)
	return plan
}

func TestPushReturnsNilUntilBufferIsFull(t *testing.T) {
	b := New(bufferSettings(), 2)
	if out := b.Push(planWithTravel(0, 0, 1)); out != nil {
		t.Errorf("expected no flush on the first push, got %v", out)
	}
	if out := b.Push(planWithTravel(1, 0, 1)); out != nil {
		t.Errorf("expected no flush while still within the buffer size, got %v", out)
	}
}

func TestPushFlushesOldestOnceBufferOverflows(t *testing.T) {
	b := New(bufferSettings(), 1)
	b.Push(planWithTravel(0, 0, 1))
	flushed := b.Push(planWithTravel(1, 0, 1))
	if flushed == nil || flushed.LayerIndex != 0 {
		t.Fatalf("expected the oldest plan (layer 0) to flush, got %v", flushed)
	}
}

func TestFlushDrainsRemainingPlansOldestFirst(t *testing.T) {
	b := New(bufferSettings(), 5)
	b.Push(planWithTravel(0, 0, 1))
	b.Push(planWithTravel(1, 0, 1))

	remaining := b.Flush()
	if len(remaining) != 2 || remaining[0].LayerIndex != 0 || remaining[1].LayerIndex != 1 {
		t.Errorf("Flush() = %v, want layers [0 1] in order", remaining)
	}
	if out := b.Flush(); len(out) != 0 {
		t.Errorf("expected a second Flush() to return nothing, got %v", out)
	}
}

func TestInsertPreheatSchedulesTemperatureOnPreviousPlan(t *testing.T) {
	b := New(bufferSettings(), 5)
	prev := planWithTravel(0, 0, 10)

	next := data.NewLayerPlan(1, 200_000, 200_000, nil, 0)
	nextEP := data.NewExtruderPlan(0, 1, false, false, 200_000, data.FanSettings{}, data.RetractionSettings{})
	temp := 200
	nextEP.ExtrusionTemperature = &temp
	next.ExtruderPlans = append(next.ExtruderPlans, nextEP)

	b.insertPreheat(prev, next)

	prevEP := prev.ExtruderPlans[0]
	if len(prevEP.Inserts) != 1 {
		t.Fatalf("expected one scheduled temperature insert on the previous plan, got %d", len(prevEP.Inserts))
	}
	if prevEP.Inserts[0].Temperature != 200 {
		t.Errorf("expected the insert to target the next layer's temperature, got %d", prevEP.Inserts[0].Temperature)
	}
	if nextEP.HeatedPreTravelTime <= 0 {
		t.Error("expected HeatedPreTravelTime to be recorded on the next plan's extruder plan")
	}
}

func TestInsertPreheatSkipsWhenNextHasNoExtrusionTemperature(t *testing.T) {
	b := New(bufferSettings(), 5)
	prev := planWithTravel(0, 0, 10)

	next := data.NewLayerPlan(1, 200_000, 200_000, nil, 0)
	nextEP := data.NewExtruderPlan(0, 1, false, false, 200_000, data.FanSettings{}, data.RetractionSettings{})
	next.ExtruderPlans = append(next.ExtruderPlans, nextEP)

	b.insertPreheat(prev, next)

	if len(prev.ExtruderPlans[0].Inserts) != 0 {
		t.Error("expected no preheat insert when the next plan has no configured extrusion temperature")
	}
}

func TestApplyMinimumLayerTimeLookaheadAddsExtraCoolTimeToShortLayer(t *testing.T) {
	b := New(bufferSettings(), 5)
	short := planWithTravel(0, 0, 1)
	b.window = append(b.window, short)

	b.applyMinimumLayerTimeLookahead()

	if short.ExtruderPlans[0].ExtraCoolTime <= 0 {
		t.Error("expected a layer shorter than MinLayerTime to accumulate extra cool time")
	}
}

func TestApplyMinimumLayerTimeLookaheadLeavesLongLayerAlone(t *testing.T) {
	b := New(bufferSettings(), 5)
	long := planWithTravel(0, 0, 100)
	b.window = append(b.window, long)

	b.applyMinimumLayerTimeLookahead()

	if long.ExtruderPlans[0].ExtraCoolTime != 0 {
		t.Errorf("expected a layer already at or above MinLayerTime to be untouched, got %v", long.ExtruderPlans[0].ExtraCoolTime)
	}
}

func TestTravelTimeAvailableSumsTrailingTravelOnly(t *testing.T) {
	ep := data.NewExtruderPlan(0, 0, false, false, 200_000, data.FanSettings{}, data.RetractionSettings{})

	extrude := data.NewGCodePath(extrusionConfig())
	extrude.Estimates.Add(data.FeatureOuterWall, 50, 1)
	ep.Paths = append(ep.Paths, extrude)

	travel := data.NewGCodePath(travelConfig())
	travel.Estimates.Add(data.FeatureTravel, 3, 0)
	ep.Paths = append(ep.Paths, travel)

	if got := travelTimeAvailable(ep); got != 3 {
		t.Errorf("travelTimeAvailable() = %v, want 3 (only the trailing travel move)", got)
	}
}
