// Package planbuffer holds a short rolling window of upcoming LayerPlans so
// decisions that need look-ahead -- when to start heating an idle
// extruder, and how much extra cooling time a layer shorter than the
// minimum layer time needs -- can be made
// before each plan is finally written out (spec.md §4.8), grounded on
// original_source's ExtruderPlan.h (the heated_pre_travel_time /
// required_start_temperature / prev_extruder_standby_temp fields a
// LayerPlanBuffer is responsible for filling in) since the distilled
// retrieval pack does not carry LayerPlanBuffer's own header.
package planbuffer

import (
	"github.com/aligator/slicecore/data"
)

// Buffer holds the pushed LayerPlans that have not been flushed yet, at
// most bufferSize of them once Push returns (spec.md §4.8 "keeps a bounded
// window").
type Buffer struct {
	settings   *data.Settings
	bufferSize int
	window     []*data.LayerPlan
}

// New returns an empty Buffer that keeps up to bufferSize plans before
// forcing the oldest one out.
func New(settings *data.Settings, bufferSize int) *Buffer {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Buffer{settings: settings, bufferSize: bufferSize}
}

// Push adds plan to the window, preheat-scheduling it against the plan
// before it, and flushes (returns) the oldest plan once the window is full
// (spec.md §4.8's "insert preheat commands as plans are pushed").
func (b *Buffer) Push(plan *data.LayerPlan) *data.LayerPlan {
	b.window = append(b.window, plan)
	if len(b.window) >= 2 {
		b.insertPreheat(b.window[len(b.window)-2], plan)
	}
	b.applyMinimumLayerTimeLookahead()

	if len(b.window) <= b.bufferSize {
		return nil
	}
	flushed := b.window[0]
	b.window = b.window[1:]
	return flushed
}

// Flush drains every remaining plan in the window, oldest first, for use
// once slicing is complete (spec.md §4.8 flush).
func (b *Buffer) Flush() []*data.LayerPlan {
	out := b.window
	b.window = nil
	return out
}

// insertPreheat schedules a temperature-up command on prev's last travel
// (or a dedicated gap) so that next's extruder is already at temperature
// by the time next's first extrusion starts, based on the extruder's
// HeatUpRate (spec.md §4.8 preheat scheduling; grounded on
// ExtruderPlan.h's heated_pre_travel_time / required_start_temperature
// fields, which record exactly this).
func (b *Buffer) insertPreheat(prev, next *data.LayerPlan) {
	nextEP := next.CurrentExtruderPlan()
	if nextEP == nil || len(next.ExtruderPlans) == 0 {
		return
	}
	first := next.ExtruderPlans[0]
	if first.ExtrusionTemperature == nil {
		return
	}

	prevEP := prevLastExtruderPlanFor(prev, first.ExtruderID)
	if prevEP == nil {
		return
	}

	ext := b.settings.ExtruderSettingsFor(first.ExtruderID)
	if ext.HeatUpRate <= 0 {
		return
	}

	tempDelta := float64(*first.ExtrusionTemperature - ext.StandbyTemperature)
	if tempDelta <= 0 {
		return
	}
	heatTime := tempDelta / ext.HeatUpRate

	travelBudget := travelTimeAvailable(prevEP)
	preheatStart := travelBudget - heatTime
	if preheatStart < 0 {
		preheatStart = 0
	}

	lastPathIdx := len(prevEP.Paths) - 1
	if lastPathIdx < 0 {
		lastPathIdx = 0
	}
	prevEP.InsertTempChange(data.NozzleTempInsert{
		PathIndex:          lastPathIdx,
		Extruder:           first.ExtruderID,
		Temperature:        *first.ExtrusionTemperature,
		WaitForTemperature: false,
		TimeAfterPathStart: preheatStart,
	})

	first.HeatedPreTravelTime = heatTime
	first.RequiredStartTemperature = *first.ExtrusionTemperature
}

func prevLastExtruderPlanFor(plan *data.LayerPlan, extruder int) *data.ExtruderPlan {
	for i := len(plan.ExtruderPlans) - 1; i >= 0; i-- {
		if plan.ExtruderPlans[i].ExtruderID == extruder {
			return plan.ExtruderPlans[i]
		}
	}
	if len(plan.ExtruderPlans) > 0 {
		return plan.ExtruderPlans[len(plan.ExtruderPlans)-1]
	}
	return nil
}

// travelTimeAvailable sums the estimated time of ep's trailing travel
// moves, the window available to preheat without delaying any extrusion.
func travelTimeAvailable(ep *data.ExtruderPlan) float64 {
	var total float64
	for i := len(ep.Paths) - 1; i >= 0; i-- {
		if !ep.Paths[i].IsTravel() {
			break
		}
		total += ep.Paths[i].Estimates.Total()
	}
	return total
}

// applyMinimumLayerTimeLookahead compares the newest plan's time (the sum
// of its extruder plans' Estimates) with MinLayerTime and splits any
// shortfall evenly across that plan's extruder plans as ExtraCoolTime.
// Older plans in the window are not adjusted.
func (b *Buffer) applyMinimumLayerTimeLookahead() {
	if len(b.window) == 0 {
		return
	}
	newest := b.window[len(b.window)-1]
	minTime := b.settings.Print.Cooling.MinLayerTime
	if minTime <= 0 {
		return
	}

	total := planTime(newest)
	if total >= minTime {
		return
	}

	shortfall := minTime - total
	for _, ep := range newest.ExtruderPlans {
		ep.ExtraCoolTime += shortfall / float64(max(1, len(newest.ExtruderPlans)))
	}
}

func planTime(plan *data.LayerPlan) float64 {
	var total float64
	for _, ep := range plan.ExtruderPlans {
		total += ep.Estimates.Total()
	}
	return total
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
