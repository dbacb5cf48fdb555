package data

import (
	"fmt"
	"io"
	"log"

	"gopkg.in/yaml.v3"
)

// Ratio is a dimensionless multiplier (flow ratio, speed factor, ...).
type Ratio float64

// Settings is the settings bundle referenced throughout spec.md §4 and §6.
// It is passed explicitly to every component instead of read from a global
// singleton (spec.md §9 "Global singleton settings").
type Settings struct {
	Logger *log.Logger `yaml:"-"`

	Machine   MachineSettings     `yaml:"machine"`
	Print     PrintSettings       `yaml:"print"`
	Extruders []ExtruderSettings  `yaml:"extruders"`
	StartGCode string             `yaml:"start_gcode"`
	EndGCode   string             `yaml:"end_gcode"`
	Flavor     string             `yaml:"flavor"`
}

// ExtruderSettingsFor returns the settings for extruder id, falling back to
// extruder 0 if id is out of range (mirrors GoSlice's "extruder settings
// inherit from global by key lookup", spec.md §9).
func (s *Settings) ExtruderSettingsFor(id int) ExtruderSettings {
	if id >= 0 && id < len(s.Extruders) {
		return s.Extruders[id]
	}
	if len(s.Extruders) > 0 {
		return s.Extruders[0]
	}
	return ExtruderSettings{}
}

// MachineSettings describes the physical printer the g-code targets.
type MachineSettings struct {
	NozzleDiameter    Millimeter `yaml:"nozzle_diameter"`
	MaxFeedrate       [4]float64 `yaml:"max_feedrate"`     // mm/s, X Y Z E
	MaxAcceleration   [4]float64 `yaml:"max_acceleration"` // mm/s^2
	MaxXYJerk         float64    `yaml:"max_xy_jerk"`      // mm/s
	MaxZJerk          float64    `yaml:"max_z_jerk"`
	MaxEJerk          float64    `yaml:"max_e_jerk"`
	DefaultAcceleration float64  `yaml:"default_acceleration"`
	HomingGCode       string     `yaml:"homing_gcode"`
	NumExtruders      int        `yaml:"num_extruders"`
}

// SpeedDerivatives bundles the three firmware-facing motion parameters a
// GCodePathConfig carries (spec.md §3 GCodePathConfig).
type SpeedDerivatives struct {
	Speed Millimeter `yaml:"speed"` // mm/s
	Accel float64    `yaml:"accel"` // mm/s^2
	Jerk  float64    `yaml:"jerk"`  // mm/s
}

// PrintSettings holds the per-print process parameters.
type PrintSettings struct {
	LayerThickness             Millimeter `yaml:"layer_thickness"`
	InitialLayerThickness      Millimeter `yaml:"initial_layer_thickness"`
	InitialSpeedupLayerCount   int        `yaml:"initial_speedup_layer_count"`

	WallLineWidth Millimeter `yaml:"wall_line_width"`
	SkinLineWidth Millimeter `yaml:"skin_line_width"`

	WallSpeed    SpeedDerivatives `yaml:"wall_speed"`
	SkinSpeed    SpeedDerivatives `yaml:"skin_speed"`
	InfillSpeed  SpeedDerivatives `yaml:"infill_speed"`
	TravelSpeed  SpeedDerivatives `yaml:"travel_speed"`
	SupportSpeed SpeedDerivatives `yaml:"support_speed"`
	BridgeSpeed  SpeedDerivatives `yaml:"bridge_speed"`

	InitialLayerSpeedFactor Ratio `yaml:"initial_layer_speed_factor"`

	Retraction RetractionSettings `yaml:"retraction"`
	Combing    CombingSettings    `yaml:"combing"`
	ZHop       ZHopSettings       `yaml:"z_hop"`
	Coasting   CoastingSettings   `yaml:"coasting"`
	Cooling    CoolingSettings    `yaml:"cooling"`

	ScarfSeam      ScarfSeamSettings      `yaml:"scarf_seam"`
	SpeedGradient  SpeedGradientSettings  `yaml:"speed_gradient"`
	SmallFeature   SmallFeatureSettings   `yaml:"small_feature"`
	GradualOverhang GradualOverhangSettings `yaml:"gradual_overhang"`

	BackPressureCompensation Ratio `yaml:"back_pressure_compensation"`

	WallLineWidth0        Millimeter `yaml:"wall_line_width_0"`
	Wall0WipeDist         Millimeter `yaml:"wall_0_wipe_dist"`
	MinBridgeLineLen      Millimeter `yaml:"min_bridge_line_len"`

	OuterNozzleDiameter Millimeter `yaml:"outer_nozzle_diameter"`

	MonotonicMaxAdjacentDistance Millimeter `yaml:"monotonic_max_adjacent_distance"`
	MonotonicExcludeDistance     Millimeter `yaml:"monotonic_exclude_distance"`

	SpiralizeContour bool `yaml:"spiralize_contour"`

	Support SupportSettings `yaml:"support"`
}

// SupportSettings configures support-area detection and generation
// (modifier.NewSupportDetectorModifier / NewSupportGeneratorModifier).
type SupportSettings struct {
	Enabled         bool       `yaml:"enabled"`
	ThresholdAngle  float64    `yaml:"threshold_angle"` // degrees from vertical
	TopGapLayers    int        `yaml:"top_gap_layers"`
	PatternSpacing  Millimeter `yaml:"pattern_spacing"`
	Gap             Millimeter `yaml:"gap"`
	InterfaceLayers int        `yaml:"interface_layers"`
}

// RetractionSettings configures filament retraction / unretraction.
type RetractionSettings struct {
	Enabled              bool       `yaml:"enabled"`
	Amount               Millimeter `yaml:"amount"`
	Speed                Millimeter `yaml:"speed"`        // mm/s
	PrimeSpeed           Millimeter `yaml:"prime_speed"`   // mm/s
	MinTravel            Millimeter `yaml:"min_travel"`
	CombingMaxDistance   Millimeter `yaml:"combing_max_distance"` // retraction_combing_max_distance
	ExtraPrimeAmount     Millimeter `yaml:"extra_prime_amount"`
	FirmwareRetract      bool       `yaml:"firmware_retract"`
	MachineFirmwareRetract bool     `yaml:"machine_firmware_retract"`
	HopOnRetract         bool       `yaml:"hop_on_retract"`
}

// CombingSettings configures travel routing inside the model.
type CombingSettings struct {
	Enabled      bool `yaml:"enabled"`
	AvoidSupport bool `yaml:"avoid_support"`
}

// ZHopSettings configures the small upward Z move during travel.
type ZHopSettings struct {
	Height Millimeter `yaml:"height"`
}

// CoastingSettings configures replacing the tail of an extrusion move with
// a travel move.
type CoastingSettings struct {
	Enabled   bool    `yaml:"enabled"`
	Volume    float64 `yaml:"volume"`     // mm^3
	MinVolume float64 `yaml:"min_volume"` // mm^3
	Speed     Ratio   `yaml:"speed"`      // fraction of the path's nominal speed
}

// CoolingSettings configures fan speed and minimum-layer-time enforcement.
type CoolingSettings struct {
	MinLayerTime  float64 `yaml:"min_layer_time"`  // seconds
	MinSpeed      Millimeter `yaml:"min_speed"`    // mm/s floor
	FanSpeedMin   float64 `yaml:"fan_speed_min"`   // percent
	FanSpeedMax   float64 `yaml:"fan_speed_max"`   // percent
	FanFullAtHeight Millimeter `yaml:"fan_full_at_height"`
}

// ScarfSeamSettings configures the overlapping tapered seam.
type ScarfSeamSettings struct {
	Enabled     bool       `yaml:"enabled"`
	Length      Millimeter `yaml:"length"`
	MaxZOffset  Millimeter `yaml:"max_z_offset"`
	StartRatio  Ratio      `yaml:"start_ratio"`
}

// SpeedGradientSettings configures the accelerate/decelerate wall ramp.
type SpeedGradientSettings struct {
	AccelerateLength Millimeter `yaml:"accelerate_length"`
	DecelerateLength Millimeter `yaml:"decelerate_length"`
	StartSpeedRatio  Ratio      `yaml:"start_speed_ratio"`
	EndSpeedRatio    Ratio      `yaml:"end_speed_ratio"`
	SplitDistance    Millimeter `yaml:"split_distance"`
}

// SmallFeatureSettings configures the whole-wall speed override for short
// closed walls.
type SmallFeatureSettings struct {
	MaxLength   Millimeter `yaml:"max_length"`
	SpeedFactor Ratio      `yaml:"speed_factor"`
}

// GradualOverhangSettings configures the speed bands used when a segment
// crosses an overhang mask (spec.md §4.7 add_extrusion_move_with_gradual_overhang).
type GradualOverhangSettings struct {
	SpeedFactors []Ratio `yaml:"speed_factors"` // band i -> factor, band 0 = fully supported
}

// ExtruderSettings holds per-extruder settings (spec.md §3 Extruder
// attributes + filament parameters).
type ExtruderSettings struct {
	ID                           int        `yaml:"id"`
	NozzleOffset                 Point      `yaml:"-"`
	FilamentDiameter              Millimeter `yaml:"filament_diameter"`
	FlowRatio                     Ratio      `yaml:"flow_ratio"`
	InitialHotEndTemperature      int        `yaml:"initial_hot_end_temperature"`
	HotEndTemperature             int        `yaml:"hot_end_temperature"`
	InitialBedTemperature         int        `yaml:"initial_bed_temperature"`
	BedTemperature                int        `yaml:"bed_temperature"`
	StandbyTemperature            int        `yaml:"standby_temperature"`
	InitialTemperatureLayerCount  int        `yaml:"initial_temperature_layer_count"`
	HeatUpRate                    float64    `yaml:"heat_up_rate"`  // degC/s, used by planbuffer preheat scheduling
	CoolDownRate                  float64    `yaml:"cool_down_rate"`
	ExtraPrimeVolume              float64    `yaml:"extra_prime_volume"` // mm^3, switch-retract compensation
	FanIndex                      int        `yaml:"fan_index"`
}

// FilamentArea returns the cross-sectional area of the filament, used to
// convert extruded mm^3 to mm of filament feed.
func (e ExtruderSettings) FilamentArea() float64 {
	r := float64(e.FilamentDiameter) / 2
	return r * r * 3.141592653589793
}

// LoadSettings decodes a YAML settings bundle, e.g. for test fixtures or an
// embedding application that wants to avoid constructing the struct tree by
// hand. This is additive to spec.md: the spec leaves the on-disk settings
// format to the (out-of-scope) CLI/definition-file loader, but a concrete
// YAML mapping gives tests and downstream tooling something real to load.
func LoadSettings(r io.Reader) (*Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

// Encode serializes the settings bundle back to YAML.
func (s *Settings) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}
