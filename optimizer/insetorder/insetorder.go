// Package insetorder imposes a partial order on wall toolpaths so
// inner/outer relationships and odd gap-fillers print in a valid sequence
// (spec.md §4.6), grounded on CuraEngine's InsetOrderOptimizer
// (original_source/include/InsetOrderOptimizer.h).
package insetorder

import (
	"sort"

	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/optimizer/pathorder"
)

// Wall pairs an ExtrusionLine with the opaque ID the caller uses to
// identify it in pathorder.Constraint values.
type Wall struct {
	ID   int
	Line data.ExtrusionLine
}

// Mode selects whether the order is computed per connected region or
// globally per inset index (spec.md §4.6).
type Mode int

const (
	ModePerRegion Mode = iota
	ModePerInset
)

// Options configures order generation.
type Options struct {
	Mode          Mode
	OuterToInner  bool // flips the sense so the outer wall prints last
}

// Order computes the partial order pairs for walls.
func Order(walls []Wall, opts Options) []pathorder.Constraint {
	var constraints []pathorder.Constraint

	switch opts.Mode {
	case ModePerRegion:
		constraints = perRegionOrder(walls)
	default:
		constraints = perInsetOrder(walls)
	}

	constraints = append(constraints, oddGapFillerOrder(walls)...)

	if opts.OuterToInner {
		// outer_to_inner: flip the sense so the outer wall may be printed
		// last instead of first.
		for i := range constraints {
			constraints[i].Before, constraints[i].After = constraints[i].After, constraints[i].Before
		}
	}

	return MakeTransitive(constraints)
}

// perRegionOrder emits (outer_i, inner_{i+1}) for neighboring insets that
// share the same RegionID (spec.md §4.6 per-region mode).
func perRegionOrder(walls []Wall) []pathorder.Constraint {
	byRegion := map[int][]Wall{}
	for _, w := range walls {
		if w.Line.IsOdd {
			continue
		}
		byRegion[w.Line.RegionID] = append(byRegion[w.Line.RegionID], w)
	}

	var result []pathorder.Constraint
	for _, group := range byRegion {
		byInset := map[int][]Wall{}
		for _, w := range group {
			byInset[w.Line.InsetIndex] = append(byInset[w.Line.InsetIndex], w)
		}
		insets := sortedInsetKeys(byInset)
		for i := 0; i+1 < len(insets); i++ {
			outer := byInset[insets[i]]
			inner := byInset[insets[i+1]]
			for _, o := range outer {
				for _, in := range inner {
					result = append(result, pathorder.Constraint{Before: o.ID, After: in.ID})
				}
			}
		}
	}
	return result
}

// perInsetOrder is the same relation but collected globally by inset index,
// ignoring region (spec.md §4.6 per-inset mode).
func perInsetOrder(walls []Wall) []pathorder.Constraint {
	byInset := map[int][]Wall{}
	for _, w := range walls {
		if w.Line.IsOdd {
			continue
		}
		byInset[w.Line.InsetIndex] = append(byInset[w.Line.InsetIndex], w)
	}
	insets := sortedInsetKeys(byInset)

	var result []pathorder.Constraint
	for i := 0; i+1 < len(insets); i++ {
		for _, o := range byInset[insets[i]] {
			for _, in := range byInset[insets[i+1]] {
				result = append(result, pathorder.Constraint{Before: o.ID, After: in.ID})
			}
		}
	}
	return result
}

// oddGapFillerOrder makes every odd-indexed gap-filler line print after
// every even wall in its region (spec.md §4.6: "Odd-indexed gap-filler
// lines always come after their enclosing even walls").
func oddGapFillerOrder(walls []Wall) []pathorder.Constraint {
	byRegion := map[int][]Wall{}
	var odds []Wall
	for _, w := range walls {
		if w.Line.IsOdd {
			odds = append(odds, w)
		} else {
			byRegion[w.Line.RegionID] = append(byRegion[w.Line.RegionID], w)
		}
	}

	var result []pathorder.Constraint
	for _, odd := range odds {
		for _, even := range byRegion[odd.Line.RegionID] {
			result = append(result, pathorder.Constraint{Before: even.ID, After: odd.ID})
		}
	}
	return result
}

func sortedInsetKeys(byInset map[int][]Wall) []int {
	keys := make([]int, 0, len(byInset))
	for k := range byInset {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MakeTransitive closes the relation under transitivity (spec.md §4.6
// "A helper makes the relation transitive"); it is a thin re-export of
// pathorder.MakeOrderTransitive since both components operate on the same
// Constraint shape.
func MakeTransitive(constraints []pathorder.Constraint) []pathorder.Constraint {
	return pathorder.MakeOrderTransitive(constraints)
}
