package planner

import "github.com/aligator/slicecore/data"

// ApplyBackPressureCompensation scales down the flow of any extrusion path
// whose line width is narrower than the path before it, compensating for
// the pressure built up in the nozzle by the wider, slower-moving
// preceding line (spec.md §4.7 apply_back_pressure_compensation; grounded
// on LayerPlan::applyBackPressureCompensation, which does the same
// width-ratio-driven flow scale-down per extruder plan).
func (p *Planner) ApplyBackPressureCompensation(factor data.Ratio) {
	if factor == 0 {
		return
	}
	for _, ep := range p.plan.ExtruderPlans {
		var prevWidth data.Micrometer
		for _, path := range ep.Paths {
			if path.IsTravel() {
				continue
			}
			width := path.Config.LineWidth
			if prevWidth > 0 && width > 0 && width < prevWidth {
				ratio := float64(width) / float64(prevWidth)
				scale := 1 - float64(factor)*(1-ratio)
				path.Flow = data.Ratio(float64(path.Flow) * scale)
			}
			prevWidth = width
		}
	}
}

// ApplyGradualFlow ramps flow linearly from startRatio up to full over the
// first rampLength of each extruder plan's extruded path, smoothing the
// transition out of a retraction/standstill instead of jumping straight to
// full flow (spec.md §4.7 apply_gradual_flow; grounded on
// LayerPlan::applyGradualFlow, CuraEngine's discrete-step equivalent of the
// same idea applied here as a continuous ramp since GCodePath.Flow is
// already continuous).
func (p *Planner) ApplyGradualFlow(rampLength data.Micrometer, startRatio data.Ratio) {
	if rampLength <= 0 {
		return
	}
	for _, ep := range p.plan.ExtruderPlans {
		var traveled data.Micrometer
		for _, path := range ep.Paths {
			if path.IsTravel() {
				continue
			}
			length := path.Length()
			if traveled >= rampLength {
				break
			}
			mid := traveled + length/2
			if mid < rampLength {
				t := float64(mid) / float64(rampLength)
				ramp := startRatio + data.Ratio(t)*(1-startRatio)
				path.Flow = data.Ratio(float64(path.Flow) * float64(ramp))
			}
			traveled += length
		}
	}
}

// ModifyPlugin is an injection point for caller-supplied post-processing
// over a finished LayerPlan (spec.md §4.7 apply_modify_plugin names an
// external "plugin" hook; this core has no plugin host, so the hook is
// just a plain Go function value the embedding application can supply).
type ModifyPlugin func(plan *data.LayerPlan)

// ApplyModifyPlugin runs every registered plugin over the plan in order.
func (p *Planner) ApplyModifyPlugin(plugins ...ModifyPlugin) {
	for _, fn := range plugins {
		if fn != nil {
			fn(p.plan)
		}
	}
}

// ProcessFanSpeedAndMinimumLayerTime scales down every extrusion's speed
// (never below cooling.MinSpeed) when the layer's estimated print time
// falls short of cooling.MinLayerTime, and sets the fan speed with
// fanSpeedFor: the minimum for a layer that meets MinLayerTime, otherwise
// the height-based full-fan ramp (spec.md §4.7
// process_fan_speed_and_minimum_layer_time). extraTime
// carries additional look-ahead time contributed by the layer-plan buffer
// (spec.md §4.8's multi-layer minimum-time coordination); callers outside
// the buffer can pass 0.
func (p *Planner) ProcessFanSpeedAndMinimumLayerTime(cooling data.CoolingSettings, extraTime float64) {
	for _, ep := range p.plan.ExtruderPlans {
		layerTime := ep.Estimates.Total() + extraTime

		if cooling.MinLayerTime > 0 && layerTime < cooling.MinLayerTime && layerTime > 0 {
			factor := data.Ratio(layerTime / cooling.MinLayerTime)
			ep.ApplySpeedFactor(factor, cooling.MinSpeed)
		}

		ep.FanSpeed = fanSpeedFor(p.plan.Z, layerTime, cooling)
	}
}

// fanSpeedFor returns FanSpeedMin when MinLayerTime is disabled or the
// layer meets it. A shorter layer gets FanSpeedMax at or above
// FanFullAtHeight, and below that height a speed interpolated by Z from
// FanSpeedMin at Z=0 up to FanSpeedMax (spec.md §4.7's height-gated fan
// ramp).
func fanSpeedFor(z data.Micrometer, layerTime float64, cooling data.CoolingSettings) float64 {
	if cooling.MinLayerTime <= 0 {
		return cooling.FanSpeedMin
	}
	if layerTime >= cooling.MinLayerTime {
		return cooling.FanSpeedMin
	}
	if z < cooling.FanFullAtHeight.ToMicrometer() {
		t := float64(z) / float64(cooling.FanFullAtHeight.ToMicrometer())
		return cooling.FanSpeedMin + t*(cooling.FanSpeedMax-cooling.FanSpeedMin)
	}
	return cooling.FanSpeedMax
}
