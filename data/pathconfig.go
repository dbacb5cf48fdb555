package data

// PrintFeature names the kind of line a GCodePath represents. Used both for
// config lookup and for time-estimate breakdown (C2) and gcode ;TYPE:
// comments (C10).
type PrintFeature int

const (
	FeatureNone PrintFeature = iota
	FeatureOuterWall
	FeatureInnerWall
	FeatureSkin
	FeatureSupport
	FeatureSupportInterface
	FeatureInfill
	FeatureSkirtBrim
	FeaturePrimeTower
	FeatureTravel
	FeatureRaft
)

func (f PrintFeature) String() string {
	switch f {
	case FeatureOuterWall:
		return "WALL-OUTER"
	case FeatureInnerWall:
		return "WALL-INNER"
	case FeatureSkin:
		return "SKIN"
	case FeatureSupport:
		return "SUPPORT"
	case FeatureSupportInterface:
		return "SUPPORT-INTERFACE"
	case FeatureInfill:
		return "FILL"
	case FeatureSkirtBrim:
		return "SKIRT"
	case FeaturePrimeTower:
		return "PRIME-TOWER"
	case FeatureTravel:
		return "TRAVEL"
	case FeatureRaft:
		return "RAFT"
	default:
		return "NONE"
	}
}

// GCodePathConfig bundles everything needed to emit and time one feature's
// worth of lines on the current layer (spec.md §3 GCodePathConfig).
//
// Equality is structural (a plain Go == on comparable fields plus a
// ExtrusionMM3PerMM cache) and is used by the layer planner as the "does
// the last path still match" key for path coalescing (spec.md §8 property
// 2).
type GCodePathConfig struct {
	Feature           PrintFeature
	LineWidth         Micrometer
	LayerThickness    Micrometer
	Flow              Ratio
	Speed             SpeedDerivatives
	IsBridge          bool
	FanOverride       float64 // -1 = no override
	ZOffset           Micrometer
	extrusionMM3PerMM float64
}

// NoFanOverride is the sentinel meaning "use the extruder plan's fan speed".
const NoFanOverride = -1

// NewGCodePathConfig builds a config and computes its derived extrusion
// rate (spec.md §3 invariant: extrusion_mm3_per_mm recomputed whenever flow,
// width or thickness change -- done unconditionally here since the struct
// is treated as immutable once built; WithFlow/WithLineWidth below return a
// fresh, recomputed copy instead of mutating in place).
func NewGCodePathConfig(feature PrintFeature, lineWidth, layerThickness Micrometer, flow Ratio, speed SpeedDerivatives) GCodePathConfig {
	c := GCodePathConfig{
		Feature:        feature,
		LineWidth:      lineWidth,
		LayerThickness: layerThickness,
		Flow:           flow,
		Speed:          speed,
		FanOverride:    NoFanOverride,
	}
	c.extrusionMM3PerMM = c.calcExtrusion()
	return c
}

func (c GCodePathConfig) calcExtrusion() float64 {
	return float64(c.LineWidth.ToMillimeter()) * float64(c.LayerThickness.ToMillimeter()) * float64(c.Flow)
}

// ExtrusionMM3PerMM returns the cached mm^3 of filament moved per mm of
// line traversed.
func (c GCodePathConfig) ExtrusionMM3PerMM() float64 { return c.extrusionMM3PerMM }

// WithFlow returns a copy of c with a new flow ratio, recomputing the
// derived extrusion rate.
func (c GCodePathConfig) WithFlow(flow Ratio) GCodePathConfig {
	c.Flow = flow
	c.extrusionMM3PerMM = c.calcExtrusion()
	return c
}

// WithLineWidth returns a copy of c with a new line width, recomputing the
// derived extrusion rate.
func (c GCodePathConfig) WithLineWidth(width Micrometer) GCodePathConfig {
	c.LineWidth = width
	c.extrusionMM3PerMM = c.calcExtrusion()
	return c
}

// WithSpeed returns a copy of c with a new speed (used by scarf-seam /
// speed-gradient / bridge ramps, which never change width or flow).
func (c GCodePathConfig) WithSpeed(speed SpeedDerivatives) GCodePathConfig {
	c.Speed = speed
	return c
}

// IsTravelPath reports whether the config represents a non-extruding move.
func (c GCodePathConfig) IsTravelPath() bool {
	return c.Feature == FeatureTravel
}

// Matches reports whether two configs are interchangeable for the purpose
// of path coalescing (spec.md §8 property 2): same feature/width/thickness
// /flow/speed/bridge/fan/z-offset.
func (c GCodePathConfig) Matches(o GCodePathConfig) bool {
	return c.Feature == o.Feature &&
		c.LineWidth == o.LineWidth &&
		c.LayerThickness == o.LayerThickness &&
		c.Flow == o.Flow &&
		c.Speed == o.Speed &&
		c.IsBridge == o.IsBridge &&
		c.FanOverride == o.FanOverride &&
		c.ZOffset == o.ZOffset
}

// PathConfigTable is a feature-indexed table of configs for one layer, plus
// per-extruder travel/skirt-brim configs and per-mesh overrides (spec.md
// §4.3).
type PathConfigTable struct {
	LayerIndex     int
	LayerThickness Micrometer

	ByFeature map[PrintFeature]GCodePathConfig
	Bridge    map[PrintFeature]GCodePathConfig
	Travel    map[int]GCodePathConfig // per extruder id
	SkirtBrim map[int]GCodePathConfig
	PerMesh   map[string]map[PrintFeature]GCodePathConfig
}

// NewPathConfigTable builds the per-layer config table, applying the
// first-K-layers speedup interpolation (spec.md §4.3): layer 0 uses the
// first-layer profile, layer InitialSpeedupLayerCount uses nominal, and
// layers in between are linearly interpolated.
func NewPathConfigTable(s *Settings, layerIndex int, layerThickness Micrometer, lineWidthFactors map[int]Ratio) *PathConfigTable {
	t := &PathConfigTable{
		LayerIndex:     layerIndex,
		LayerThickness: layerThickness,
		ByFeature:      map[PrintFeature]GCodePathConfig{},
		Bridge:         map[PrintFeature]GCodePathConfig{},
		Travel:         map[int]GCodePathConfig{},
		SkirtBrim:      map[int]GCodePathConfig{},
		PerMesh:        map[string]map[PrintFeature]GCodePathConfig{},
	}

	factor := speedupFactor(s, layerIndex)

	build := func(feature PrintFeature, width Millimeter, nominal SpeedDerivatives) GCodePathConfig {
		speed := interpolateSpeed(nominal, s.Print.InitialLayerSpeedFactor, factor)
		return NewGCodePathConfig(feature, width.ToMicrometer(), layerThickness, 1, speed)
	}

	t.ByFeature[FeatureOuterWall] = build(FeatureOuterWall, s.Print.WallLineWidth0NonZero(), s.Print.WallSpeed)
	t.ByFeature[FeatureInnerWall] = build(FeatureInnerWall, s.Print.WallLineWidth, s.Print.WallSpeed)
	t.ByFeature[FeatureSkin] = build(FeatureSkin, s.Print.SkinLineWidth, s.Print.SkinSpeed)
	t.ByFeature[FeatureInfill] = build(FeatureInfill, s.Print.WallLineWidth, s.Print.InfillSpeed)
	t.ByFeature[FeatureSupport] = build(FeatureSupport, s.Print.WallLineWidth, s.Print.SupportSpeed)
	t.ByFeature[FeatureSupportInterface] = build(FeatureSupportInterface, s.Print.SkinLineWidth, s.Print.SupportSpeed)

	bridge := t.ByFeature[FeatureOuterWall]
	bridge.IsBridge = true
	bridge.Speed = s.Print.BridgeSpeed
	t.Bridge[FeatureOuterWall] = bridge
	t.Bridge[FeatureInnerWall] = bridge

	for id := range lineWidthFactors {
		width := Micrometer(float64(s.Print.WallLineWidth.ToMicrometer()) * float64(lineWidthFactors[id]))
		travel := NewGCodePathConfig(FeatureTravel, 0, layerThickness, 0, interpolateSpeed(s.Print.TravelSpeed, s.Print.InitialLayerSpeedFactor, factor))
		t.Travel[id] = travel
		skirt := build(FeatureSkirtBrim, width.ToMillimeter(), s.Print.WallSpeed)
		t.SkirtBrim[id] = skirt
	}

	return t
}

// BridgeConfigFor returns the bridge variant of the config for feature,
// falling back to feature's own config with IsBridge forced true.
func (t *PathConfigTable) BridgeConfigFor(feature PrintFeature) GCodePathConfig {
	if c, ok := t.Bridge[feature]; ok {
		return c
	}
	c := t.ByFeature[feature]
	c.IsBridge = true
	return c
}

// speedupFactor returns, for layerIndex, the interpolation factor in [0,1]
// between the first-layer profile (0) and nominal (1) given K =
// InitialSpeedupLayerCount. Layer >= K always returns 1.
func speedupFactor(s *Settings, layerIndex int) float64 {
	k := s.Print.InitialSpeedupLayerCount
	if k <= 0 || layerIndex >= k {
		return 1
	}
	if layerIndex <= 0 {
		return 0
	}
	return float64(layerIndex) / float64(k)
}

func interpolateSpeed(nominal SpeedDerivatives, firstLayerFactor Ratio, t float64) SpeedDerivatives {
	first := SpeedDerivatives{
		Speed: nominal.Speed * Millimeter(firstLayerFactor),
		Accel: nominal.Accel,
		Jerk:  nominal.Jerk,
	}
	return SpeedDerivatives{
		Speed: first.Speed + Millimeter(t)*(nominal.Speed-first.Speed),
		Accel: first.Accel + t*(nominal.Accel-first.Accel),
		Jerk:  first.Jerk + t*(nominal.Jerk-first.Jerk),
	}
}

// WallLineWidth0NonZero returns the outer wall line width, falling back to
// the regular wall line width when unset (zero value).
func (p PrintSettings) WallLineWidth0NonZero() Millimeter {
	if p.WallLineWidth0 != 0 {
		return p.WallLineWidth0
	}
	return p.WallLineWidth
}
