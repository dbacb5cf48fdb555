package planner

import (
	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/gcode"
)

// WriteGCode renders the finished plan to exp (spec.md §4.7 write_gcode),
// grounded on LayerPlan::writeGCode: walk each extruder plan in order,
// switching extruders and firing any due temperature inserts as paths are
// reached, writing travels with retraction/Z-hop and extrusions with
// coasting applied to the tail of the move.
func (p *Planner) WriteGCode(exp *gcode.Exporter) {
	exp.WriteLayerComment(p.plan.LayerIndex)

	for _, ep := range p.plan.ExtruderPlans {
		exp.StartExtruder(ep.ExtruderID)
		if ep.ExtrusionTemperature != nil {
			exp.WriteTemperatureCommand(ep.ExtruderID, *ep.ExtrusionTemperature, false)
		}
		exp.WriteFanCommand(p.fanIndexFor(ep.ExtruderID), ep.FanSpeed)

		insertIdx := 0
		for pathIdx, path := range ep.Paths {
			for insertIdx < len(ep.Inserts) && ep.Inserts[insertIdx].PathIndex == pathIdx {
				ins := ep.Inserts[insertIdx]
				exp.WriteTemperatureCommand(ins.Extruder, ins.Temperature, ins.WaitForTemperature)
				insertIdx++
			}

			p.writePath(exp, ep, path)
		}
		for ; insertIdx < len(ep.Inserts); insertIdx++ {
			ins := ep.Inserts[insertIdx]
			exp.WriteTemperatureCommand(ins.Extruder, ins.Temperature, ins.WaitForTemperature)
		}
	}
}

func (p *Planner) fanIndexFor(extruder int) int {
	ext := p.settings.ExtruderSettingsFor(extruder)
	return ext.FanIndex
}

func (p *Planner) writePath(exp *gcode.Exporter, ep *data.ExtruderPlan, path *data.GCodePath) {
	if len(path.Points) == 0 {
		return
	}

	if path.IsTravel() {
		p.writeTravelPath(exp, ep, path)
		return
	}

	if p.settings.Print.Coasting.Enabled {
		p.writeExtrusionWithCoasting(exp, path)
		return
	}

	speed := path.Config.Speed.Speed * data.Millimeter(path.SpeedFactor)
	mm3PerMM := path.Config.ExtrusionMM3PerMM() * float64(path.Flow) * float64(path.WidthFactor)
	for _, pt := range path.Points {
		exp.WriteExtrusion(pt, speed, mm3PerMM, path.Config.Feature)
	}
}

func (p *Planner) writeTravelPath(exp *gcode.Exporter, ep *data.ExtruderPlan, path *data.GCodePath) {
	if path.Retract {
		exp.WriteRetraction(ep.RetractionSettings, false)
	}
	if path.PerformZHop {
		exp.WriteZHopStart(p.settings.Print.ZHop.Height.ToMicrometer(), 0)
	}
	speed := p.settings.Print.TravelSpeed.Speed
	for _, pt := range path.Points {
		exp.WriteTravel(pt, speed)
	}
	if path.PerformZHop {
		exp.WriteZHopEnd(0)
	}
	if !path.UnretractBeforeLastTravel && path.Retract {
		exp.WriteUnretraction(ep.RetractionSettings)
	}
}

// writeExtrusionWithCoasting replaces the tail of an extrusion path with a
// plain travel once the remaining volume to extrude drops below
// Coasting.Volume, so the nozzle pressure bleeds off before the next travel
// move instead of oozing during it (spec.md §4.7 write_gcode's coasting
// behavior, grounded on LayerPlan::writePathWithCoasting).
func (p *Planner) writeExtrusionWithCoasting(exp *gcode.Exporter, path *data.GCodePath) {
	coasting := p.settings.Print.Coasting
	mm3PerMM := path.Config.ExtrusionMM3PerMM() * float64(path.Flow) * float64(path.WidthFactor)
	totalVolume := mm3PerMM * float64(path.Length().ToMillimeter())

	if mm3PerMM <= 0 || totalVolume < coasting.MinVolume {
		speed := path.Config.Speed.Speed * data.Millimeter(path.SpeedFactor)
		for _, pt := range path.Points {
			exp.WriteExtrusion(pt, speed, mm3PerMM, path.Config.Feature)
		}
		return
	}

	coastDist := coasting.Volume / mm3PerMM // mm
	coastDistUm := data.Millimeter(coastDist).ToMicrometer()

	totalLen := path.Length()
	coastStart := totalLen - coastDistUm
	if coastStart < 0 {
		coastStart = 0
	}

	speed := path.Config.Speed.Speed * data.Millimeter(path.SpeedFactor)
	coastSpeed := speed * data.Millimeter(coasting.Speed)

	var traveled data.Micrometer
	prev := exp.CurrentPosition()
	for _, pt := range path.Points {
		segLen := pt.To2D().Dist(prev.To2D())
		segStart := traveled
		traveled += segLen

		switch {
		case traveled <= coastStart:
			exp.WriteExtrusion(pt, speed, mm3PerMM, path.Config.Feature)
		case segStart >= coastStart:
			exp.WriteTravel(pt, coastSpeed)
		default:
			// Segment straddles the coast boundary: split it.
			t := float64(coastStart-segStart) / float64(segLen)
			split := data.Point3{
				X: prev.X + data.Micrometer(float64(pt.X-prev.X)*t),
				Y: prev.Y + data.Micrometer(float64(pt.Y-prev.Y)*t),
				Z: pt.Z,
			}
			exp.WriteExtrusion(split, speed, mm3PerMM, path.Config.Feature)
			exp.WriteTravel(pt, coastSpeed)
		}
		prev = pt
	}
}
