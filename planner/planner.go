// Package planner is the layer-planning hub (spec.md §4.7), grounded on
// CuraEngine's LayerPlan (original_source/include/LayerPlan.h). It turns
// already-computed geometry (walls, skins, infill lines) into the
// GCodePath sequence a data.LayerPlan holds, deciding travel routing,
// seams, speed ramps, coasting and minimum-layer-time enforcement along
// the way. GoSlice has no equivalent "hub" type -- its modifier/gcode
// packages are thinner -- so the struct shape here follows LayerPlan.h
// while the Go idiom (methods on a plain struct wrapping *data.LayerPlan,
// explicit error returns) follows GoSlice's package style.
package planner

import (
	"github.com/aligator/slicecore/comb"
	"github.com/aligator/slicecore/data"
)

// Planner builds one data.LayerPlan, exposing the same sequence of
// operations original_source's LayerPlan exposes to FffGcodeWriter.
type Planner struct {
	plan     *data.LayerPlan
	settings *data.Settings

	combMin       *comb.Comber
	combPreferred *comb.Comber

	lastPlannedPosition *data.Point

	// forceNewPathStart mirrors LayerPlan::force_new_path_start_: the next
	// add_* call must not coalesce onto the last path even if the config
	// matches (spec.md §4.7 addWall's "force new path at the seam").
	forceNewPathStart bool
}

// New starts a Planner over a fresh LayerPlan.
func New(layerIndex int, z, layerThickness data.Micrometer, configs *data.PathConfigTable, startExtruder int, settings *data.Settings) *Planner {
	plan := data.NewLayerPlan(layerIndex, z, layerThickness, configs, startExtruder)
	return &Planner{plan: plan, settings: settings}
}

// Plan returns the data.LayerPlan being built.
func (p *Planner) Plan() *data.LayerPlan { return p.plan }

// SetCombBoundaries installs the min/preferred comb boundaries used by
// AddTravel (spec.md §4.4's two boundary variants: "minimum" always keeps
// travel inside printed plastic, "preferred" additionally avoids supports
// when combing.avoid_support is set).
func (p *Planner) SetCombBoundaries(min, preferred []data.LayerPart) {
	p.plan.CombBoundaryMin = min
	p.plan.CombBoundaryPreferred = preferred
	p.combMin = comb.NewComber(min)
	if len(preferred) > 0 {
		p.combPreferred = comb.NewComber(preferred)
	} else {
		p.combPreferred = p.combMin
	}
}

// ForceNewPathStart prevents the next extrusion-move call from coalescing
// onto the current path (spec.md §4.7 forceNewPathStart).
func (p *Planner) ForceNewPathStart() {
	p.forceNewPathStart = true
}

// SetExtruder starts a new ExtruderPlan for extruder if it isn't already
// the active one, returning whether an actual switch happened (spec.md
// §4.7 set_extruder). fan and retraction come from the caller's settings
// resolution for the new extruder.
func (p *Planner) SetExtruder(extruder int, isFirstLayer, isRaft bool, fan data.FanSettings, retraction data.RetractionSettings) bool {
	if cur := p.plan.CurrentExtruderPlan(); cur != nil && cur.ExtruderID == extruder {
		return false
	}
	prev := p.plan.LastExtruder
	ep := data.NewExtruderPlan(extruder, p.plan.LayerIndex, isFirstLayer, isRaft, p.plan.LayerThickness, fan, retraction)
	p.plan.ExtruderPlans = append(p.plan.ExtruderPlans, ep)
	p.plan.LastExtruder = extruder
	p.forceNewPathStart = true
	return prev != extruder
}

// currentBoundary picks the preferred comb boundary, falling back to the
// minimum one, per spec.md §4.4.
func (p *Planner) currentBoundary(preferred bool) *comb.Comber {
	if preferred && p.combPreferred != nil {
		return p.combPreferred
	}
	return p.combMin
}

// AddTravel adds a travel move to p, combing through the configured
// boundary when possible and falling back to retract + optional Z-hop +
// straight travel when combing fails or finds start/end in different
// components (spec.md §4.4, §7 "Combing failure").
func (p *Planner) AddTravel(dest data.Point, forceRetract bool) *data.GCodePath {
	ep := p.plan.CurrentExtruderPlan()
	from := p.plan.CurrentPosition()

	comber := p.currentBoundary(true)
	var waypoints []data.Point
	ok := false
	combed := false
	if comber != nil && p.settings.Print.Combing.Enabled {
		waypoints, ok = comber.Calc(from, dest)
		combed = true
	}

	needsRetract := forceRetract || (combed && !ok) || from.Dist(dest) > p.settings.Print.Retraction.MinTravel.ToMicrometer()

	path := p.newTravelPath()
	if needsRetract && ep != nil {
		path.Retract = true
		if p.settings.Print.ZHop.Height > 0 {
			path.PerformZHop = true
		}
	}

	if ok {
		for _, w := range waypoints {
			path.Add(data.Point3{X: w.X, Y: w.Y, Z: p.plan.Z})
		}
	}
	path.Add(data.Point3{X: dest.X, Y: dest.Y, Z: p.plan.Z})

	p.commitPosition(dest)
	return path
}

// AddTravelSimple adds a direct travel move with no combing at all (spec.md
// §4.7 add_travel_simple), used for known-safe moves like prime-tower
// approaches.
func (p *Planner) AddTravelSimple(dest data.Point) *data.GCodePath {
	path := p.newTravelPath()
	path.Add(data.Point3{X: dest.X, Y: dest.Y, Z: p.plan.Z})
	p.commitPosition(dest)
	return path
}

func (p *Planner) newTravelPath() *data.GCodePath {
	ep := p.plan.CurrentExtruderPlan()
	cfg := p.plan.PathConfigs.Travel[ep.ExtruderID]
	last := ep.LastPath()
	if !p.forceNewPathStart && last != nil && last.IsTravel() && !last.Done {
		return last
	}
	p.forceNewPathStart = false
	return ep.AppendPath(data.NewGCodePath(cfg))
}

func (p *Planner) commitPosition(dest data.Point) {
	pos := data.Point3{X: dest.X, Y: dest.Y, Z: p.plan.Z}
	p.plan.LastPosition = &pos
}

// AddExtrusionMove appends an extrusion move to dest using config,
// coalescing onto the current path when its config matches and no new
// path was forced (spec.md §8 property 2).
func (p *Planner) AddExtrusionMove(dest data.Point, config data.GCodePathConfig, flow, widthFactor data.Ratio) *data.GCodePath {
	ep := p.plan.CurrentExtruderPlan()
	path := p.currentOrNewExtrusionPath(ep, config)
	path.Flow = flow
	if widthFactor != 0 {
		path.WidthFactor = widthFactor
	}
	path.Add(data.Point3{X: dest.X, Y: dest.Y, Z: p.plan.Z})
	p.commitPosition(dest)
	return path
}

// AddExtrusionMoveWithGradualOverhang is like AddExtrusionMove but splits
// the segment at every OverhangMask boundary it crosses, scaling speed by
// that band's factor for the portion inside it (spec.md §4.7
// add_extrusion_move_with_gradual_overhang).
func (p *Planner) AddExtrusionMoveWithGradualOverhang(dest data.Point, config data.GCodePathConfig, flow data.Ratio) []*data.GCodePath {
	from := p.plan.CurrentPosition()
	segments := splitByOverhang(from, dest, p.plan.OverhangMasks)

	var paths []*data.GCodePath
	for _, seg := range segments {
		cfg := config
		if seg.factor != 1 {
			cfg = config.WithSpeed(data.SpeedDerivatives{
				Speed: config.Speed.Speed * data.Millimeter(seg.factor),
				Accel: config.Speed.Accel,
				Jerk:  config.Speed.Jerk,
			})
		}
		paths = append(paths, p.AddExtrusionMove(seg.to, cfg, flow, 0))
	}
	return paths
}

type overhangSegment struct {
	to     data.Point
	factor data.Ratio
}

// splitByOverhang walks the masks in order and emits one segment per band
// the line a->b passes through, defaulting to factor 1 outside every mask.
func splitByOverhang(a, b data.Point, masks []data.OverhangMask) []overhangSegment {
	if len(masks) == 0 {
		return []overhangSegment{{to: b, factor: 1}}
	}

	type cut struct {
		t      float64
		factor data.Ratio
	}
	cuts := []cut{{t: 0, factor: 1}}

	for _, mask := range masks {
		for _, area := range mask.Areas {
			for _, pt := range data.LineSegmentIntersections(a, b, area.Outline()) {
				t := segmentParam(a, b, pt)
				cuts = append(cuts, cut{t: t, factor: mask.Factor})
			}
		}
	}

	// Sort ascending by t.
	for i := 1; i < len(cuts); i++ {
		for j := i; j > 0 && cuts[j].t < cuts[j-1].t; j-- {
			cuts[j], cuts[j-1] = cuts[j-1], cuts[j]
		}
	}

	var segments []overhangSegment
	currentFactor := data.Ratio(1)
	for i := 1; i < len(cuts); i++ {
		pt := data.Lerp(a, b, cuts[i].t)
		segments = append(segments, overhangSegment{to: pt, factor: currentFactor})
		currentFactor = cuts[i].factor
	}
	segments = append(segments, overhangSegment{to: b, factor: currentFactor})
	return segments
}

func segmentParam(a, b, p data.Point) float64 {
	dir := b.Sub(a)
	length2 := dir.Size2()
	if length2 == 0 {
		return 0
	}
	return float64(p.Sub(a).Dot(dir)) / float64(length2)
}

func (p *Planner) currentOrNewExtrusionPath(ep *data.ExtruderPlan, config data.GCodePathConfig) *data.GCodePath {
	last := ep.LastPath()
	if !p.forceNewPathStart && last != nil && !last.Done && last.Config.Matches(config) {
		return last
	}
	p.forceNewPathStart = false
	return ep.AppendPath(data.NewGCodePath(config))
}

// AddPolygon emits a closed polygon starting at startIdx (chosen by the
// path-order optimizer), going around once and back to the start (spec.md
// §4.7 add_polygon).
func (p *Planner) AddPolygon(poly data.Polygon, startIdx int, config data.GCodePathConfig, wipeDist data.Micrometer) {
	pts := poly.Points
	n := len(pts)
	if n == 0 {
		return
	}
	start := pts[startIdx%n]
	p.AddTravel(start, false)
	for i := 1; i <= n; i++ {
		p.AddExtrusionMove(pts[(startIdx+i)%n], config, 1, 0)
	}
	if wipeDist > 0 {
		p.addWipe(pts, startIdx, wipeDist)
	}
}

// addWipe continues a short distance past the seam along the polygon at
// travel speed with no extrusion, per spec.md's wall_0_wipe_dist (grounded
// on LayerPlan::addWipeTravel).
func (p *Planner) addWipe(pts data.Path, startIdx int, wipeDist data.Micrometer) {
	n := len(pts)
	remaining := wipeDist
	from := pts[startIdx%n]
	for i := 1; i <= n && remaining > 0; i++ {
		to := pts[(startIdx+i)%n]
		seg := to.Dist(from)
		if seg == 0 {
			continue
		}
		if seg > remaining {
			to = data.Lerp(from, to, float64(remaining)/float64(seg))
			p.AddTravelSimple(to)
			return
		}
		p.AddTravelSimple(to)
		remaining -= seg
		from = to
	}
}
