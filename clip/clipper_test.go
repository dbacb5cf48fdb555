package clip

import (
	"testing"

	"github.com/aligator/slicecore/data"
)

func square(x0, y0, side data.Micrometer) data.Path {
	return data.Path{
		{X: x0, Y: y0},
		{X: x0 + side, Y: y0},
		{X: x0 + side, Y: y0 + side},
		{X: x0, Y: y0 + side},
	}
}

func part(x0, y0, side data.Micrometer) data.LayerPart {
	return data.NewLayerPart(square(x0, y0, side), nil)
}

func TestUnionOfOverlappingSquaresMerges(t *testing.T) {
	c := NewClipper()
	a := []data.LayerPart{part(0, 0, 1000)}
	b := []data.LayerPart{part(500, 0, 1000)}

	result, ok := c.Union(a, b)
	if !ok {
		t.Fatal("Union reported failure")
	}
	if len(result) != 1 {
		t.Fatalf("expected the two overlapping squares to merge into one part, got %d", len(result))
	}

	gotArea := result[0].Outline().Area()
	if gotArea <= 0 {
		t.Errorf("expected positive area, got %v", gotArea)
	}
}

func TestDifferenceRemovesOverlap(t *testing.T) {
	c := NewClipper()
	a := []data.LayerPart{part(0, 0, 1000)}
	b := []data.LayerPart{part(500, 0, 1000)}

	result, ok := c.Difference(a, b)
	if !ok {
		t.Fatal("Difference reported failure")
	}
	if len(result) != 1 {
		t.Fatalf("expected one remaining part, got %d", len(result))
	}
	if area := result[0].Outline().Area(); area >= 1000*1000 {
		t.Errorf("expected difference to shrink the area, got %v", area)
	}
}

func TestIntersectionOfDisjointSquaresIsEmpty(t *testing.T) {
	c := NewClipper()
	a := []data.LayerPart{part(0, 0, 1000)}
	b := []data.LayerPart{part(5000, 5000, 1000)}

	result, ok := c.Intersection(a, b)
	if !ok {
		t.Fatal("Intersection reported failure")
	}
	if len(result) != 0 {
		t.Errorf("expected no intersection between disjoint squares, got %d parts", len(result))
	}
}

func TestOffsetInsetShrinksOutline(t *testing.T) {
	c := NewClipper()
	a := []data.LayerPart{part(0, 0, 2000)}

	result, ok := c.Offset(a, -200)
	if !ok {
		t.Fatal("Offset reported failure")
	}
	if len(result) != 1 {
		t.Fatalf("expected one part, got %d", len(result))
	}
	if area := result[0].Outline().Area(); area >= 2000*2000 {
		t.Errorf("expected inset to shrink area below original, got %v", area)
	}
}

func TestInsetLayerProducesRequestedRingCount(t *testing.T) {
	c := NewClipper()
	layer := []data.LayerPart{part(0, 0, 3000)}

	insets := c.InsetLayer(layer, 200, 3)
	if len(insets) != 1 {
		t.Fatalf("expected one entry per input part, got %d", len(insets))
	}
	if len(insets[0]) != 3 {
		t.Fatalf("expected 3 inset rings, got %d", len(insets[0]))
	}
}

func TestToOneDimensionFlattens(t *testing.T) {
	insets := [][]data.LayerPart{
		{part(0, 0, 100), part(200, 0, 100)},
		{part(0, 0, 50)},
	}
	flat := ToOneDimension(insets)
	if len(flat) != 3 {
		t.Errorf("ToOneDimension flattened to %d parts, want 3", len(flat))
	}
}

func TestConvexHullOfSquareIsItsCorners(t *testing.T) {
	path := square(0, 0, 1000)
	hull := ConvexHull(path)
	if len(hull) != 4 {
		t.Errorf("expected square's hull to keep all 4 corners, got %d", len(hull))
	}
}

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	path := data.Path{
		{X: 0, Y: 0},
		{X: 1000, Y: 0},
		{X: 1000, Y: 1000},
		{X: 0, Y: 1000},
		{X: 500, Y: 500}, // interior point, must not survive
	}
	hull := ConvexHull(path)
	for _, p := range hull {
		if p == (data.Point{X: 500, Y: 500}) {
			t.Error("interior point should not appear in the convex hull")
		}
	}
}

func TestConvexHullOfFewerThanThreePointsReturnsInput(t *testing.T) {
	path := data.Path{{X: 0, Y: 0}, {X: 1000, Y: 0}}
	hull := ConvexHull(path)
	if len(hull) != len(path) {
		t.Errorf("expected degenerate input returned unchanged, got %d points", len(hull))
	}
}
