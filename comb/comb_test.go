package comb

import (
	"testing"

	"github.com/aligator/slicecore/data"
)

func squarePart(side data.Micrometer) data.LayerPart {
	return data.NewLayerPart(data.Path{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}, nil)
}

func TestInsideReportsPointsWithinBoundary(t *testing.T) {
	c := NewComber([]data.LayerPart{squarePart(10000)})

	if !c.Inside(data.Point{X: 5000, Y: 5000}) {
		t.Error("center of square should be inside")
	}
	if c.Inside(data.Point{X: 20000, Y: 20000}) {
		t.Error("point far outside square should not be inside")
	}
}

func TestCalcShortTravelSkipsCombing(t *testing.T) {
	c := NewComber([]data.LayerPart{squarePart(10000)})

	path, ok := c.Calc(data.Point{X: 1000, Y: 1000}, data.Point{X: 1500, Y: 1000})
	if !ok {
		t.Fatal("short travel should always succeed")
	}
	if len(path) != 0 {
		t.Errorf("short travel should add no intermediate points, got %v", path)
	}
}

func TestCalcStraightLineInsideBoundaryNeedsNoDetour(t *testing.T) {
	c := NewComber([]data.LayerPart{squarePart(10000)})

	path, ok := c.Calc(data.Point{X: 1000, Y: 1000}, data.Point{X: 9000, Y: 1000})
	if !ok {
		t.Fatal("travel fully inside the boundary should succeed")
	}
	if len(path) != 0 {
		t.Errorf("expected no detour for a straight line that never crosses the boundary, got %v", path)
	}
}

func TestCalcRoutesAroundHole(t *testing.T) {
	outer := data.Path{
		{X: 0, Y: 0},
		{X: 20000, Y: 0},
		{X: 20000, Y: 20000},
		{X: 0, Y: 20000},
	}
	hole := data.Path{
		{X: 8000, Y: 8000},
		{X: 8000, Y: 12000},
		{X: 12000, Y: 12000},
		{X: 12000, Y: 8000},
	}
	part := data.NewLayerPart(outer, data.Paths{hole})
	c := NewComber([]data.LayerPart{part})

	path, ok := c.Calc(data.Point{X: 2000, Y: 10000}, data.Point{X: 18000, Y: 10000})
	if !ok {
		t.Fatal("expected routing around the hole to succeed")
	}
	if len(path) == 0 {
		t.Error("expected at least one detour point to route around the hole")
	}
}

func TestMoveInsideSnapsOutsidePointOntoBoundary(t *testing.T) {
	c := NewComber([]data.LayerPart{squarePart(10000)})

	moved, found := c.moveInside(data.Point{X: -500, Y: 5000})
	if !found {
		t.Fatal("expected a nearby outside point to be moved inside")
	}
	if !c.Inside(moved) {
		t.Errorf("moved point %v should now be inside the boundary", moved)
	}
}

func TestMoveInsideFallsBackToConvexHull(t *testing.T) {
	// Two separate squares far apart: a point near the gap between them is
	// outside moveInsideSearchRadius of either square's edges, so the comber
	// must fall back to the convex hull of all outline points.
	near := data.NewLayerPart(data.Path{
		{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000},
	}, nil)
	far := data.NewLayerPart(data.Path{
		{X: 50000, Y: 0}, {X: 51000, Y: 0}, {X: 51000, Y: 1000}, {X: 50000, Y: 1000},
	}, nil)
	c := NewComber([]data.LayerPart{near, far})

	if len(c.hull) < 3 {
		t.Fatal("expected a non-degenerate convex hull over both squares' points")
	}

	_, found := c.moveInside(data.Point{X: 25000, Y: 500})
	if !found {
		t.Error("expected the convex-hull fallback to still find a point")
	}
}

func TestEnsureDistinctComponents(t *testing.T) {
	c := NewComber([]data.LayerPart{squarePart(10000)})

	inside := data.Point{X: 5000, Y: 5000}
	outside := data.Point{X: 50000, Y: 50000}

	if !EnsureDistinctComponents(c, inside, outside) {
		t.Error("expected an inside/outside pair to be reported as distinct components")
	}
}
