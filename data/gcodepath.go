package data

// MeshHandle is a non-owning, opaque reference to a mesh owned by the
// slice-wide storage (spec.md §9: "shared pointers to meshes in
// GCodePath" -> shared ownership where the mesh outlives the layer plan).
// Mesh loading/parsing is out of scope for this core, so a handle carries
// only the identity needed to look a mesh's settings back up, never
// geometry.
type MeshHandle struct {
	Name string
}

// SpaceFillType tags how a path's interior was generated, used by
// gap-filler / monotonic-order handling.
type SpaceFillType int

const (
	SpaceFillNone SpaceFillType = iota
	SpaceFillLines
	SpaceFillPolygonSpiralize
)

// GCodePath is one contiguous motion segment of uniform config (spec.md §3
// GCodePath). It is either a travel (Config.IsTravelPath()) or an
// extrusion. Created by the layer planner, mutated while being built, then
// immutable once Done is set.
type GCodePath struct {
	Config        GCodePathConfig
	Mesh          *MeshHandle
	SpaceFill     SpaceFillType
	Flow          Ratio
	WidthFactor   Ratio
	Spiralize     bool
	SpeedFactor   Ratio
	BackPressureFactor Ratio

	Retract                 bool
	UnretractBeforeLastTravel bool
	PerformZHop             bool
	PerformPrime            bool

	Points []Point3

	Done bool

	FanOverride float64

	Estimates Estimates
}

// Point3 is a point in X/Y/Z, used within a GCodePath once Z is no longer
// implicitly "the current layer" (spiralize, scarf-seam ramps).
type Point3 struct {
	X, Y, Z Micrometer
}

func (p Point3) To2D() Point { return Point{p.X, p.Y} }

// NewGCodePath starts a new, empty path with the given config.
func NewGCodePath(config GCodePathConfig) *GCodePath {
	return &GCodePath{
		Config:      config,
		Flow:        1,
		WidthFactor: 1,
		SpeedFactor: 1,
		FanOverride: NoFanOverride,
	}
}

// IsTravel reports whether this path is a non-extruding move.
func (p *GCodePath) IsTravel() bool {
	return p.Config.IsTravelPath()
}

// Add appends a point to the path. Points is the lifecycle-mutable part of
// an otherwise-immutable-once-Done path (spec.md §3 GCodePath lifecycle).
func (p *GCodePath) Add(pt Point3) {
	p.Points = append(p.Points, pt)
}

// Length returns the 2D length of the path (ignores Z, used for volume /
// coasting distance calculations which are always planar within a layer).
func (p *GCodePath) Length() Micrometer {
	var total Micrometer
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i].To2D().Dist(p.Points[i-1].To2D())
	}
	return total
}

// ExtrudedVolume returns the total mm^3 of filament this path would
// extrude if printed in full, accounting for per-path Flow/WidthFactor.
func (p *GCodePath) ExtrudedVolume() float64 {
	if p.IsTravel() {
		return 0
	}
	mm3PerMM := p.Config.ExtrusionMM3PerMM() * float64(p.Flow) * float64(p.WidthFactor)
	return mm3PerMM * float64(p.Length().ToMillimeter())
}

// NozzleTempInsert is a scheduled temperature change, inserted between
// paths by the layer-plan buffer (spec.md §3 NozzleTempInsert). Ordered by
// (PathIndex, TimeAfterPathStart).
type NozzleTempInsert struct {
	PathIndex          int
	Extruder           int
	Temperature        int
	WaitForTemperature bool
	TimeAfterPathStart float64 // seconds
}

// TempInsertLess orders inserts by (path_index, time_after_path_start) per
// spec.md §3's invariant.
func TempInsertLess(a, b NozzleTempInsert) bool {
	if a.PathIndex != b.PathIndex {
		return a.PathIndex < b.PathIndex
	}
	return a.TimeAfterPathStart < b.TimeAfterPathStart
}

// Estimates is a time/material breakdown by feature, the concrete form
// spec.md §4.2 leaves open ("total time broken down by feature kind"),
// following original_source's ExtruderPlan::TimeMaterialEstimates.
type Estimates struct {
	TimePerFeature     map[PrintFeature]float64 // seconds
	MaterialPerFeature map[PrintFeature]float64 // mm^3
}

// NewEstimates returns a zeroed breakdown.
func NewEstimates() Estimates {
	return Estimates{
		TimePerFeature:     map[PrintFeature]float64{},
		MaterialPerFeature: map[PrintFeature]float64{},
	}
}

// Add accumulates time/material for feature.
func (e *Estimates) Add(feature PrintFeature, time, material float64) {
	if e.TimePerFeature == nil {
		*e = NewEstimates()
	}
	e.TimePerFeature[feature] += time
	e.MaterialPerFeature[feature] += material
}

// Total returns the sum of all per-feature times.
func (e Estimates) Total() float64 {
	var total float64
	for _, t := range e.TimePerFeature {
		total += t
	}
	return total
}

// TotalMaterial returns the sum of all per-feature extruded material.
func (e Estimates) TotalMaterial() float64 {
	var total float64
	for _, m := range e.MaterialPerFeature {
		total += m
	}
	return total
}
