package gcode

import (
	"fmt"
	"io"
	"math"

	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/template"
	"github.com/aligator/slicecore/timeestimate"
)

// extruderState tracks the per-extruder mutable state GCodeExport keeps in
// original_source's ExtruderTrainAttributes.
type extruderState struct {
	used               bool
	primed             bool
	filamentArea       float64 // mm^2, 0 means E is written as the volume in mm^3, unconverted
	totalFilament      float64 // mm^3
	currentTemperature int
	retractedAmount    float64 // mm or mm^3, 0 = not retracted
	nozzleOffset       data.Point
}

// Exporter writes flavor-aware G-code to an io.Writer, tracking the state
// needed to emit only the commands that actually changed (spec.md §4.9),
// grounded on original_source's GCodeExport.
type Exporter struct {
	w        io.Writer
	Flavor   Flavor
	Settings *data.Settings

	currentPosition data.Point3
	currentExtruder int
	currentSpeed    float64 // mm/s
	currentEValue   float64

	currentPrintAccel  float64
	currentTravelAccel float64
	currentJerk        float64

	relativeExtrusion bool
	zHopped           data.Micrometer

	extruders []extruderState

	currentFanSpeed map[int]float64

	layerNr int

	boundingBox data.Box

	estimate *timeestimate.Calculator

	lastFeature data.PrintFeature
}

// NewExporter builds an Exporter over w for the given settings.
func NewExporter(w io.Writer, settings *data.Settings) *Exporter {
	flavor := ParseFlavor(settings.Flavor)
	extruders := make([]extruderState, len(settings.Extruders))
	for i, e := range settings.Extruders {
		extruders[i] = extruderState{filamentArea: e.FilamentArea(), nozzleOffset: e.NozzleOffset}
	}
	return &Exporter{
		w:               w,
		Flavor:          flavor,
		Settings:        settings,
		extruders:       extruders,
		currentFanSpeed: map[int]float64{},
		boundingBox:     data.NewEmptyBox(),
		estimate:        timeestimate.NewCalculator(settings.Machine),
		lastFeature:     data.FeatureNone,
	}
}

func (e *Exporter) write(format string, args ...interface{}) {
	fmt.Fprintf(e.w, format+"\n", args...)
}

// WriteComment writes a semicolon comment line, splitting embedded newlines
// into multiple comment lines like original_source's writeComment.
func (e *Exporter) WriteComment(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			e.write(";%s", text[start:i])
			start = i + 1
		}
	}
}

// WriteTypeComment emits a ";TYPE:" comment if feature differs from the
// last one written, mirroring writeTypeComment's dedup behavior.
func (e *Exporter) WriteTypeComment(feature data.PrintFeature) {
	if feature == e.lastFeature {
		return
	}
	e.lastFeature = feature
	e.write(";TYPE:%s", feature.String())
}

// WriteLayerComment emits the ";LAYER:" comment the post-processing
// pipeline searches for to split a file into per-layer chunks.
func (e *Exporter) WriteLayerComment(layerNr int) {
	e.layerNr = layerNr
	e.write(";LAYER:%d", layerNr)
}

// WriteLayerCountComment emits the ";LAYER_COUNT:" comment.
func (e *Exporter) WriteLayerCountComment(count int) {
	e.write(";LAYER_COUNT:%d", count)
}

// templateContext adapts a Settings+extruder view to template.Context so
// start/end gcode can reference setting values (spec.md §4.10).
type templateContext struct {
	s *data.Settings
}

func (c templateContext) Lookup(key string) (string, bool) {
	switch key {
	case "machine_nozzle_size":
		return fmt.Sprintf("%v", c.s.Machine.NozzleDiameter), true
	case "layer_height":
		return fmt.Sprintf("%v", c.s.Print.LayerThickness), true
	}
	return "", false
}

func (c templateContext) LookupExtruder(extruder int, key string) (string, bool) {
	ext := c.s.ExtruderSettingsFor(extruder)
	switch key {
	case "material_print_temperature":
		return fmt.Sprintf("%d", ext.HotEndTemperature), true
	case "material_bed_temperature":
		return fmt.Sprintf("%d", ext.BedTemperature), true
	case "material_standby_temperature":
		return fmt.Sprintf("%d", ext.StandbyTemperature), true
	}
	return c.Lookup(key)
}

// GetFileHeader returns the file header block (spec.md §4.9's "flavor
// determines ... the header format"), grounded on
// GCodeExport::getFileHeader.
func (e *Exporter) GetFileHeader(extruderIsUsed []bool) string {
	var header string
	switch e.Flavor {
	case FlavorUltiGCode:
		header = ";FLAVOR:UltiGCode\n;TIME:0\n;MATERIAL:0\n;MATERIAL2:0\n"
	case FlavorGriffin:
		header = ";START_OF_HEADER\n;HEADER_VERSION:0.1\n;FLAVOR:Griffin\n;GENERATOR.NAME:slicecore\n;GENERATOR.VERSION:0.1\n;END_OF_HEADER\n"
	default:
		header = fmt.Sprintf(";FLAVOR:%s\n;TIME:0\n", e.Flavor)
		for i, used := range extruderIsUsed {
			if used {
				header += fmt.Sprintf(";Filament used: 0m (extruder %d)\n", i)
			}
		}
	}
	return header
}

// WriteExtrusionMode writes M82/M83 selecting absolute or relative E.
func (e *Exporter) WriteExtrusionMode(relative bool) {
	e.relativeExtrusion = relative
	if relative {
		e.write("M83 ; relative extrusion mode")
	} else {
		e.write("M82 ; absolute extrusion mode")
	}
}

// mm3ToE converts a volume in mm^3 to the value to write on the E axis for
// the current extruder (linear feed length, unless the flavor is
// volumetric).
func (e *Exporter) mm3ToE(mm3 float64) float64 {
	if e.Flavor.IsVolumetric() {
		return mm3
	}
	area := e.extruders[e.clampExtruder(e.currentExtruder)].filamentArea
	if area == 0 {
		return mm3
	}
	return mm3 / area
}

func (e *Exporter) clampExtruder(id int) int {
	if id < 0 || id >= len(e.extruders) {
		return 0
	}
	return id
}

// WriteTravel emits a non-extruding move to p at speed, applying any active
// Z-hop height on top of p.Z (spec.md §4.9 travel moves never touch E).
func (e *Exporter) WriteTravel(p data.Point3, speed data.Millimeter) {
	e.writeFXYZE(speed, p.X, p.Y, p.Z+e.zHopped, e.currentEValue, data.FeatureTravel)
}

// WriteExtrusion emits a move to p at speed while extruding mm3PerMM*length
// worth of material, tagged with feature for time/material bookkeeping and
// the ;TYPE: comment (spec.md §4.9).
func (e *Exporter) WriteExtrusion(p data.Point3, speed data.Millimeter, mm3PerMM float64, feature data.PrintFeature) {
	e.WriteTypeComment(feature)
	dist := p.To2D().Dist(e.currentPosition.To2D())
	volume := mm3PerMM * float64(dist.ToMillimeter())

	idx := e.clampExtruder(e.currentExtruder)
	e.extruders[idx].totalFilament += volume

	deltaE := e.mm3ToE(volume)
	newE := e.currentEValue
	if e.relativeExtrusion {
		newE = deltaE
	} else {
		newE = e.currentEValue + deltaE
	}

	e.writeFXYZE(speed, p.X, p.Y, p.Z+e.zHopped, newE, feature)
}

// writeFXYZE is the common move-emission path (original_source's
// writeFXYZE): it only writes axes that changed, and feeds the time
// estimator.
func (e *Exporter) writeFXYZE(speed data.Millimeter, x, y, z data.Micrometer, newE float64, feature data.PrintFeature) {
	var parts string
	if float64(speed) != e.currentSpeed {
		e.currentSpeed = float64(speed)
		parts += fmt.Sprintf(" F%.0f", float64(speed)*60)
	}
	p := data.Point3{X: x, Y: y, Z: z}
	if x != e.currentPosition.X || y != e.currentPosition.Y {
		parts += fmt.Sprintf(" X%.3f Y%.3f", float64(x.ToMillimeter()), float64(y.ToMillimeter()))
	}
	if z != e.currentPosition.Z {
		parts += fmt.Sprintf(" Z%.3f", float64(z.ToMillimeter()))
	}
	if newE != e.currentEValue || e.relativeExtrusion {
		parts += fmt.Sprintf(" E%.5f", newE)
	}
	if parts == "" {
		return
	}
	e.write("G1%s", parts)

	e.estimate.Plan(float64(x.ToMillimeter()), float64(y.ToMillimeter()), float64(z.ToMillimeter()), newE, float64(speed), feature)

	e.boundingBox = e.boundingBox.Extend(p.To2D())
	e.currentPosition = p
	e.currentEValue = newE
}

// WriteRetraction writes a retraction move: firmware G10 for flavors that
// support it, otherwise an explicit negative E move (spec.md §4.2/§4.9).
func (e *Exporter) WriteRetraction(r data.RetractionSettings, extruderSwitch bool) {
	if !r.Enabled {
		return
	}
	idx := e.clampExtruder(e.currentExtruder)
	if e.extruders[idx].retractedAmount > 0 {
		return
	}
	amount := float64(r.Amount)
	if extruderSwitch {
		amount += float64(r.ExtraPrimeAmount)
	}
	e.extruders[idx].retractedAmount = amount

	if e.Flavor.UsesFirmwareRetraction() {
		e.write("G10")
		return
	}

	newE := e.currentEValue - amount
	e.writeFXYZE(r.Speed, e.currentPosition.X, e.currentPosition.Y, e.currentPosition.Z+e.zHopped, newE, data.FeatureNone)
}

// WriteUnretraction reverses the most recent retraction: priming back to
// the pre-retraction E value (spec.md §4.2 unretraction/priming).
func (e *Exporter) WriteUnretraction(r data.RetractionSettings) {
	idx := e.clampExtruder(e.currentExtruder)
	if e.extruders[idx].retractedAmount == 0 {
		return
	}
	amount := e.extruders[idx].retractedAmount
	e.extruders[idx].retractedAmount = 0

	if e.Flavor.UsesFirmwareRetraction() {
		e.write("G11")
		return
	}

	newE := e.currentEValue + amount
	e.writeFXYZE(r.PrimeSpeed, e.currentPosition.X, e.currentPosition.Y, e.currentPosition.Z+e.zHopped, newE, data.FeatureNone)
}

// WriteZHopStart lifts the nozzle by height above the current layer Z.
func (e *Exporter) WriteZHopStart(height data.Micrometer, speed data.Millimeter) {
	if height <= 0 || e.zHopped == height {
		return
	}
	e.zHopped = height
	e.writeFXYZE(speed, e.currentPosition.X, e.currentPosition.Y, e.currentPosition.Z+height, e.currentEValue, data.FeatureTravel)
}

// WriteZHopEnd returns the nozzle to the layer's working Z.
func (e *Exporter) WriteZHopEnd(speed data.Millimeter) {
	if e.zHopped == 0 {
		return
	}
	hop := e.zHopped
	e.zHopped = 0
	e.writeFXYZE(speed, e.currentPosition.X, e.currentPosition.Y, e.currentPosition.Z-hop, e.currentEValue, data.FeatureTravel)
}

// StartExtruder marks an extruder used and writes any per-extruder start
// gcode (spec.md §4.9 "set_extruder" support at the gcode-writer level).
func (e *Exporter) StartExtruder(extruder int) {
	idx := e.clampExtruder(extruder)
	e.currentExtruder = extruder
	if !e.extruders[idx].used {
		e.extruders[idx].used = true
		e.write("T%d", extruder)
	}
	e.extruders[idx].primed = true
}

// SwitchExtruder performs the retract-switch-prime sequence CuraEngine's
// switchExtruder documents: retract (with extra prime compensation),
// optional Z-hop, tool change, then the new extruder's priming.
func (e *Exporter) SwitchExtruder(newExtruder int, retraction data.RetractionSettings, zhop data.Micrometer) {
	if newExtruder == e.currentExtruder {
		return
	}
	e.WriteRetraction(retraction, true)
	if zhop > 0 {
		e.WriteZHopStart(zhop, 0)
	}
	e.write("T%d", newExtruder)
	e.currentExtruder = newExtruder
	if zhop > 0 {
		e.WriteZHopEnd(0)
	}
	idx := e.clampExtruder(newExtruder)
	e.extruders[idx].used = true
	e.extruders[idx].primed = true
}

// WriteTemperatureCommand writes M104/M109 (set, or set-and-wait).
func (e *Exporter) WriteTemperatureCommand(extruder, temperature int, wait bool) {
	idx := e.clampExtruder(extruder)
	if e.extruders[idx].currentTemperature == temperature && !wait {
		return
	}
	e.extruders[idx].currentTemperature = temperature
	code := "M104"
	if wait {
		code = "M109"
	}
	if len(e.extruders) > 1 {
		e.write("%s T%d S%d", code, extruder, temperature)
	} else {
		e.write("%s S%d", code, temperature)
	}
}

// WriteBedTemperatureCommand writes M140/M190.
func (e *Exporter) WriteBedTemperatureCommand(temperature int, wait bool) {
	code := "M140"
	if wait {
		code = "M190"
	}
	e.write("%s S%d", code, temperature)
}

// WriteFanCommand writes M106/M107, skipping the command if speed is
// unchanged from the last write (original_source's dedup behavior).
func (e *Exporter) WriteFanCommand(fanIndex int, speedPercent float64) {
	if cur, ok := e.currentFanSpeed[fanIndex]; ok && cur == speedPercent {
		return
	}
	e.currentFanSpeed[fanIndex] = speedPercent
	if speedPercent <= 0 {
		e.write("M107")
		return
	}
	pwm := int(math.Round(speedPercent / 100 * 255))
	e.write("M106 S%d", pwm)
}

// WritePrintAcceleration writes M204 S (print-move acceleration).
func (e *Exporter) WritePrintAcceleration(accel float64) {
	if accel == e.currentPrintAccel {
		return
	}
	e.currentPrintAccel = accel
	e.write("M204 S%.0f", accel)
}

// WriteTravelAcceleration writes M204 T, for flavors with separate
// travel/print acceleration (Griffin).
func (e *Exporter) WriteTravelAcceleration(accel float64) {
	if accel == e.currentTravelAccel {
		return
	}
	e.currentTravelAccel = accel
	if e.Flavor == FlavorGriffin {
		e.write("M204 T%.0f", accel)
	}
}

// WriteJerk writes M205 X/Y.
func (e *Exporter) WriteJerk(jerk float64) {
	if jerk == e.currentJerk {
		return
	}
	e.currentJerk = jerk
	e.write("M205 X%.2f Y%.2f", jerk, jerk)
}

// ResetExtrusionValue writes G92 E0, used when the accumulated E value
// grows large enough to risk float precision loss.
func (e *Exporter) ResetExtrusionValue() {
	idx := e.clampExtruder(e.currentExtruder)
	e.extruders[idx].totalFilament += 0
	e.currentEValue = 0
	e.write("G92 E0")
}

// WriteDwell writes a pure dwell (G4), e.g. for wait-for-temperature gaps
// the planner inserts explicitly rather than relying on M109's blocking
// wait.
func (e *Exporter) WriteDwell(seconds float64) {
	if seconds <= 0 {
		return
	}
	e.write("G4 P%.0f", seconds*1000)
}

// WriteRawLine writes a line of gcode verbatim, e.g. a resolved
// start/end-gcode template block.
func (e *Exporter) WriteRawLine(line string) {
	if line == "" {
		return
	}
	if line[len(line)-1] != '\n' {
		line += "\n"
	}
	fmt.Fprint(e.w, line)
}

// ResolveTemplate resolves a `{expr}` template string against this
// exporter's settings (spec.md §4.10), for start/end gcode.
func (e *Exporter) ResolveTemplate(tmpl string) string {
	return template.Resolve(tmpl, templateContext{s: e.Settings})
}

// Finalize writes the final fan-off / end-gcode sequence and flushes the
// accumulated time estimate (original_source's GCodeExport::finalize).
func (e *Exporter) Finalize(endGCode string) data.Estimates {
	for i := range e.currentFanSpeed {
		e.WriteFanCommand(i, 0)
	}
	e.WriteRawLine(e.ResolveTemplate(endGCode))
	return e.estimate.Calculate()
}

// TotalFilamentUsed returns the net mm^3 extruded by extruder (retractions
// excluded), per original_source's getTotalFilamentUsed.
func (e *Exporter) TotalFilamentUsed(extruder int) float64 {
	return e.extruders[e.clampExtruder(extruder)].totalFilament
}

// BoundingBox returns the 2D bounding box of every move written so far.
func (e *Exporter) BoundingBox() data.Box {
	return e.boundingBox
}

// CurrentPosition returns the last position written.
func (e *Exporter) CurrentPosition() data.Point3 {
	return e.currentPosition
}
