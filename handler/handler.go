// Package handler defines the small interfaces the pipeline stages outside
// this core (layer modifiers run before planning, the eventual file writer)
// implement, mirroring the teacher's handler package so modifier and writer
// keep the same plug-in shape without pulling in the rest of a slicer
// application.
package handler

import "github.com/aligator/slicecore/data"

// Named gives a modifier or writer a human-readable name for logging,
// embedded the same way GoSlice's modifiers embed handler.Named.
type Named struct {
	Name string
}

func (n Named) String() string {
	return n.Name
}

// LayerModifier runs over every already-partitioned layer before planning
// starts, attaching or rewriting per-layer attributes (e.g. support areas)
// that later stages read back out.
type LayerModifier interface {
	Init(settings *data.Settings)
	Modify(layers []data.PartitionedLayer) error
}

// GCodeWriter persists a finished G-code document, the seam between this
// core's in-memory output and the filesystem.
type GCodeWriter interface {
	Write(gcode string, filename string) error
}
