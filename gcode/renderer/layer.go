// This file provides the per-layer G-code hooks that wrap planner.WriteGCode:
// the opening sequence (heat-and-wait, home, prime) written once before the
// first layer, and the closing sequence (cool down, park, disable steppers)
// written once after the last. Adapted from GoSlice's gcode/renderer
// PreLayer/PostLayer onto the new Exporter/Settings shape.
package renderer

import (
	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/gcode"
)

// WriteStartSequence emits the one-time preamble for layer 0: a disabled
// fan, the initial heat-and-wait for every used extruder and the bed, the
// settings' configured start G-code, and a nozzle lift plus extrusion
// distance reset so the first move starts from a known state.
func WriteStartSequence(exp *gcode.Exporter, settings *data.Settings, usedExtruders []bool) {
	exp.WriteRawLine(exp.GetFileHeader(usedExtruders))
	exp.WriteComment("disable fan")
	exp.WriteFanCommand(0, 0)

	for id, used := range usedExtruders {
		if !used {
			continue
		}
		ext := settings.ExtruderSettingsFor(id)
		exp.WriteTemperatureCommand(id, ext.InitialHotEndTemperature, false)
	}
	exp.WriteBedTemperatureCommand(settings.ExtruderSettingsFor(0).InitialBedTemperature, true)
	for id, used := range usedExtruders {
		if !used {
			continue
		}
		ext := settings.ExtruderSettingsFor(id)
		exp.WriteTemperatureCommand(id, ext.InitialHotEndTemperature, true)
	}

	if settings.StartGCode != "" {
		exp.WriteRawLine(exp.ResolveTemplate(settings.StartGCode))
	}

	exp.WriteRawLine("G1 Z5 F5000")
	exp.ResetExtrusionValue()
}

// WriteTemperatureStepDown drops every used extruder from its initial
// temperature to its steady-state printing temperature once
// InitialTemperatureLayerCount is reached, without waiting for the change
// to complete (spec.md's step-down happens mid-print, not at a pause).
func WriteTemperatureStepDown(exp *gcode.Exporter, settings *data.Settings, layerNr int, usedExtruders []bool) {
	for id, used := range usedExtruders {
		if !used {
			continue
		}
		ext := settings.ExtruderSettingsFor(id)
		if layerNr == ext.InitialTemperatureLayerCount {
			exp.WriteBedTemperatureCommand(ext.BedTemperature, false)
			exp.WriteTemperatureCommand(id, ext.HotEndTemperature, false)
		}
	}
}

// WriteEndSequence emits the one-time trailer after the last layer: the
// settings' configured end G-code, fan and heater shutdown, a park move,
// and stepper disable.
func WriteEndSequence(exp *gcode.Exporter, settings *data.Settings, usedExtruders []bool) {
	if settings.EndGCode != "" {
		exp.WriteRawLine(exp.ResolveTemplate(settings.EndGCode))
	}
	exp.WriteFanCommand(0, 0)
	for id, used := range usedExtruders {
		if !used {
			continue
		}
		exp.WriteTemperatureCommand(id, 0, false)
	}
	exp.WriteBedTemperatureCommand(0, false)
	exp.WriteRawLine("G28 X0")
	exp.WriteRawLine("M84")
}
