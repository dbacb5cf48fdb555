package data

// OverhangMask is one "gradual overhang" band: a set of regions where an
// extrusion move needs its speed scaled by Factor because it hangs beyond
// the wall below by more than Distance (spec.md §4.7
// add_extrusion_move_with_gradual_overhang).
type OverhangMask struct {
	Distance Micrometer
	Factor   Ratio
	Areas    []LayerPart
}

// LayerPlan is the per-layer build target of the layer planner (spec.md §3
// LayerPlan). It owns its ExtruderPlans and their GCodePaths exclusively.
type LayerPlan struct {
	LayerIndex     int
	Z              Micrometer
	LayerThickness Micrometer

	PathConfigs *PathConfigTable

	ExtruderPlans []*ExtruderPlan

	LastPosition *Point3
	LastExtruder int

	CombBoundaryMin       []LayerPart
	CombBoundaryPreferred []LayerPart

	BridgeMask       []LayerPart
	OverhangMasks    []OverhangMask
	RoofingMask      []LayerPart
	FlooringMask     []LayerPart
	SeamOverhangMask []LayerPart

	PrimeTowerPlannedPerExtruder map[int]bool
	SkirtBrimPlannedPerExtruder  map[int]bool

	FirstTravelDestination *Point3

	IsInside  bool
	WasInside bool

	// LastExtruderPreviousLayer records the extruder that finished the
	// previous layer, used by the first extruder switch of this layer to
	// decide whether a switch is even necessary.
	LastExtruderPreviousLayer int
}

// NewLayerPlan starts a new, empty layer plan.
func NewLayerPlan(layerIndex int, z, layerThickness Micrometer, configs *PathConfigTable, startExtruder int) *LayerPlan {
	return &LayerPlan{
		LayerIndex:                   layerIndex,
		Z:                            z,
		LayerThickness:               layerThickness,
		PathConfigs:                  configs,
		LastExtruder:                 startExtruder,
		LastExtruderPreviousLayer:    startExtruder,
		PrimeTowerPlannedPerExtruder: map[int]bool{},
		SkirtBrimPlannedPerExtruder:  map[int]bool{},
	}
}

// CurrentExtruderPlan returns the plan for the currently active extruder,
// which is always the last one in ExtruderPlans once planning has started.
func (l *LayerPlan) CurrentExtruderPlan() *ExtruderPlan {
	if len(l.ExtruderPlans) == 0 {
		return nil
	}
	return l.ExtruderPlans[len(l.ExtruderPlans)-1]
}

// IsEmpty reports whether the layer has no paths at all on any extruder
// (spec.md §7 "Empty layer plan" -> write only the layer comment).
func (l *LayerPlan) IsEmpty() bool {
	for _, ep := range l.ExtruderPlans {
		if len(ep.Paths) > 0 {
			return false
		}
	}
	return true
}

// CurrentPosition returns the last planned position (2D), or the zero
// point if nothing has been planned yet.
func (l *LayerPlan) CurrentPosition() Point {
	if l.LastPosition == nil {
		return Point{}
	}
	return l.LastPosition.To2D()
}
