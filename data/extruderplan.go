package data

import "sort"

// FanSettings is the resolved fan behavior for an extruder plan.
type FanSettings struct {
	Speed float64 // percent, 0-100
}

// ExtruderPlan represents all work a single extruder performs on a single
// layer (spec.md §3 ExtruderPlan).
type ExtruderPlan struct {
	ExtruderID     int
	LayerIndex     int
	IsFirstLayer   bool
	IsRaft         bool
	LayerThickness Micrometer

	FanSettings       FanSettings
	RetractionSettings RetractionSettings

	Paths   []*GCodePath
	Inserts []NozzleTempInsert

	RequiredStartTemperature int
	ExtrusionTemperature     *int
	PrevExtruderStandbyTemp  *int

	Estimates Estimates

	FanSpeed              float64
	HeatedPreTravelTime   float64
	ExtraCoolTime         float64
}

// NewExtruderPlan starts an empty plan for one extruder on one layer.
func NewExtruderPlan(extruderID, layerIndex int, isFirstLayer, isRaft bool, layerThickness Micrometer, fan FanSettings, retraction RetractionSettings) *ExtruderPlan {
	return &ExtruderPlan{
		ExtruderID:         extruderID,
		LayerIndex:         layerIndex,
		IsFirstLayer:       isFirstLayer,
		IsRaft:             isRaft,
		LayerThickness:     layerThickness,
		FanSettings:        fan,
		RetractionSettings: retraction,
		Estimates:          NewEstimates(),
	}
}

// InsertTempChange schedules a temperature insert, keeping Inserts ordered
// by (PathIndex, TimeAfterPathStart) per spec.md §3's invariant.
func (e *ExtruderPlan) InsertTempChange(insert NozzleTempInsert) {
	e.Inserts = append(e.Inserts, insert)
	sort.SliceStable(e.Inserts, func(i, j int) bool {
		return TempInsertLess(e.Inserts[i], e.Inserts[j])
	})
}

// LastPath returns the most recently added path, or nil if none exist.
func (e *ExtruderPlan) LastPath() *GCodePath {
	if len(e.Paths) == 0 {
		return nil
	}
	return e.Paths[len(e.Paths)-1]
}

// AppendPath appends a new path and returns it.
func (e *ExtruderPlan) AppendPath(p *GCodePath) *GCodePath {
	e.Paths = append(e.Paths, p)
	return p
}

// TotalExtrudedVolume sums the extruded volume of every path in the plan.
func (e *ExtruderPlan) TotalExtrudedVolume() float64 {
	var total float64
	for _, p := range e.Paths {
		total += p.ExtrudedVolume()
	}
	return total
}

// ApplySpeedFactor scales the speed of every extrusion path (not travels)
// by factor, used by minimum-layer-time enforcement (spec.md §4.7
// process_fan_speed_and_minimum_layer_time).
func (e *ExtruderPlan) ApplySpeedFactor(factor Ratio, floor Millimeter) {
	for _, p := range e.Paths {
		if p.IsTravel() {
			continue
		}
		newSpeed := p.Config.Speed.Speed * Millimeter(factor)
		if newSpeed < floor {
			newSpeed = floor
		}
		if newSpeed == p.Config.Speed.Speed {
			continue
		}
		p.Config = p.Config.WithSpeed(SpeedDerivatives{
			Speed: newSpeed,
			Accel: p.Config.Speed.Accel,
			Jerk:  p.Config.Speed.Jerk,
		})
	}
}
