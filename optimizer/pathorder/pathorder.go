// Package pathorder chooses the order in which closed polygons and open
// polylines are printed, and where each closed polygon's seam vertex lies
// (spec.md §4.5). Grounded on CuraEngine's PathOrderOptimizer
// (original_source/include/PathOrderOptimizer.h): the algorithm is
// polymorphic over any type that can report a start point, end point,
// length and vertex-at-index, exactly the "template/lambda-heavy" shape
// spec.md §9 asks to be replaced with an explicit Go interface.
package pathorder

import (
	"math"
	"sort"

	"github.com/aligator/slicecore/comb"
	"github.com/aligator/slicecore/data"
)

// SeamType selects the strategy used to pick a closed path's start vertex.
type SeamType int

const (
	SeamRandom SeamType = iota
	SeamUserSpecified
	SeamShortest
	SeamSharpestCorner
)

// CornerPreference filters which kind of corner SeamSharpestCorner favors.
type CornerPreference int

const (
	CornerNone CornerPreference = iota
	CornerInner
	CornerOuter
	CornerAny
	CornerWeighted
)

// SeamConfig configures seam vertex selection for closed paths.
type SeamConfig struct {
	Type          SeamType
	CornerPref    CornerPreference
	UserPoint     data.Point
	CornerBonus   float64 // weight applied to |angle| in the SHARPEST_CORNER score
	RandomFn      func(n int) int
}

// Orderable is anything the optimizer can order and seam: a closed polygon,
// an open polyline, or a variable-width wall. spec.md §9 calls this out
// explicitly as the interface the original's templates specialize on.
type Orderable interface {
	// VertexAt returns the i'th vertex (0-indexed, wrapping for closed
	// paths).
	VertexAt(i int) data.Point
	// NumVertices returns the vertex count.
	NumVertices() int
	// Closed reports whether the path is a closed polygon (seam selection
	// applies) or an open polyline (only start-endpoint selection applies).
	Closed() bool
	// Length returns the path's length (closed perimeter or open length).
	Length() data.Micrometer
}

// PolygonPath adapts data.Polygon to Orderable.
type PolygonPath struct{ Polygon data.Polygon }

func (p PolygonPath) VertexAt(i int) data.Point { return p.Polygon.Points[i%len(p.Polygon.Points)] }
func (p PolygonPath) NumVertices() int          { return len(p.Polygon.Points) }
func (p PolygonPath) Closed() bool              { return true }
func (p PolygonPath) Length() data.Micrometer   { return p.Polygon.Length() }

// PolylinePath adapts data.Polyline to Orderable.
type PolylinePath struct{ Polyline data.Polyline }

func (p PolylinePath) VertexAt(i int) data.Point { return p.Polyline.Points[i] }
func (p PolylinePath) NumVertices() int          { return len(p.Polyline.Points) }
func (p PolylinePath) Closed() bool              { return false }
func (p PolylinePath) Length() data.Micrometer   { return p.Polyline.Length() }

// WallPath adapts a data.ExtrusionLine to Orderable.
type WallPath struct{ Wall data.ExtrusionLine }

func (w WallPath) VertexAt(i int) data.Point {
	pts := w.Wall.Points()
	return pts[i%len(pts)]
}
func (w WallPath) NumVertices() int        { return len(w.Wall.Junctions) }
func (w WallPath) Closed() bool            { return w.Wall.Closed }
func (w WallPath) Length() data.Micrometer { return w.Wall.Length() }

// Entry is one path submitted to the optimizer, tagged with an opaque ID
// the caller uses to correlate results back to its own data (since
// Orderable intentionally carries no identity).
type Entry struct {
	ID   int
	Path Orderable
}

// Constraint says "A must be printed before B" (both are Entry.ID values).
type Constraint struct {
	Before int
	After  int
}

// Result is the chosen order and, for each path, the picked start vertex
// and direction.
type Result struct {
	ID         int
	StartIndex int
	Reverse    bool
}

// Config bundles every knob spec.md §4.5 lists.
type Config struct {
	Seam              SeamConfig
	CombBoundary      *comb.Comber
	DetectLoops       bool
	ReverseDirection  bool
	bucketSize        data.Micrometer
}

// DefaultConfig returns sane defaults (no combing, SHORTEST seam).
func DefaultConfig() Config {
	return Config{
		Seam:       SeamConfig{Type: SeamShortest},
		bucketSize: 10_000, // 10mm spatial bucket
	}
}

// Optimize computes the global print order and per-path seam/direction.
// start is the current position the first path is measured from.
func Optimize(entries []Entry, start data.Point, constraints []Constraint, cfg Config) []Result {
	entries = maybeDetectLoops(entries, cfg)

	remaining := make(map[int]Entry, len(entries))
	for _, e := range entries {
		remaining[e.ID] = e
	}

	predecessors := map[int][]int{} // id -> ids that must print before it
	for _, c := range constraints {
		predecessors[c.After] = append(predecessors[c.After], c.Before)
	}
	printed := map[int]bool{}

	buckets := newSpatialIndex(entries, cfg.bucketSize)

	var order []Result
	current := start

	for len(remaining) > 0 {
		candidateIDs := buckets.near(current, remaining)
		if len(candidateIDs) == 0 {
			for id := range remaining {
				candidateIDs = append(candidateIDs, id)
			}
		}

		bestID := -1
		bestStart := 0
		bestReverse := false
		bestDist := math.MaxFloat64
		consideredAll := len(candidateIDs) == len(remaining)

		for _, id := range candidateIDs {
			if !readyToPrint(id, predecessors, printed) {
				continue
			}
			entry := remaining[id]
			startIdx, reverse, dist := bestStartFor(entry, current, cfg)
			if bestID == -1 || dist < bestDist {
				bestID = id
				bestStart = startIdx
				bestReverse = reverse
				bestDist = dist
			}
		}

		// Fall back to a full scan if the spatial bucket produced nothing
		// usable (every nearby candidate blocked by constraints).
		if bestID == -1 && !consideredAll {
			for id, entry := range remaining {
				if !readyToPrint(id, predecessors, printed) {
					continue
				}
				startIdx, reverse, dist := bestStartFor(entry, current, cfg)
				if bestID == -1 || dist < bestDist {
					bestID = id
					bestStart = startIdx
					bestReverse = reverse
					bestDist = dist
				}
			}
		}

		if bestID == -1 {
			// Nothing is printable: constraints form a cycle, or all
			// remaining paths are degenerate. Emit in map iteration order
			// to make forward progress rather than looping forever.
			for id := range remaining {
				bestID = id
				break
			}
		}

		entry := remaining[bestID]
		order = append(order, Result{ID: bestID, StartIndex: bestStart, Reverse: bestReverse})
		printed[bestID] = true
		delete(remaining, bestID)
		buckets.remove(bestID)

		current = endpointAfter(entry, bestStart, bestReverse)
	}

	if cfg.ReverseDirection {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
		for i := range order {
			order[i].Reverse = !order[i].Reverse
		}
	}

	return order
}

func readyToPrint(id int, predecessors map[int][]int, printed map[int]bool) bool {
	for _, p := range predecessors[id] {
		if !printed[p] {
			return false
		}
	}
	return true
}

// bestStartFor returns the start vertex index, direction, and distance
// from current to that start for entry, using direct distance unless a
// combing boundary is supplied (spec.md §4.5's "combed distance, but only
// if it could beat the best candidate so far" pruning is approximated here
// by only combing when a comb boundary is actually configured; the caller
// is expected to pre-filter entries by bucket to keep the candidate count
// low before this is called).
func bestStartFor(entry Entry, current data.Point, cfg Config) (startIdx int, reverse bool, dist float64) {
	if !entry.Path.Closed() {
		// Open polyline: the start is whichever endpoint is closer.
		n := entry.Path.NumVertices()
		startP := entry.Path.VertexAt(0)
		endP := entry.Path.VertexAt(n - 1)
		dStart := distanceTo(current, startP, cfg)
		dEnd := distanceTo(current, endP, cfg)
		if dEnd < dStart {
			return n - 1, true, dEnd
		}
		return 0, false, dStart
	}

	startIdx = chooseSeam(entry.Path, cfg.Seam, current)
	p := entry.Path.VertexAt(startIdx)
	return startIdx, false, distanceTo(current, p, cfg)
}

func distanceTo(from, to data.Point, cfg Config) float64 {
	direct := float64(from.Dist(to))
	if cfg.CombBoundary == nil {
		return direct
	}
	path, ok := cfg.CombBoundary.Calc(from, to)
	if !ok {
		return direct
	}
	total := 0.0
	prev := from
	for _, p := range path {
		total += float64(prev.Dist(p))
		prev = p
	}
	total += float64(prev.Dist(to))
	return total
}

func endpointAfter(entry Entry, startIdx int, reverse bool) data.Point {
	if !entry.Path.Closed() {
		if reverse {
			return entry.Path.VertexAt(0)
		}
		return entry.Path.VertexAt(entry.Path.NumVertices() - 1)
	}
	return entry.Path.VertexAt(startIdx)
}

// maybeDetectLoops converts open polylines whose endpoints coincide within
// 10 micrometers into closed polygons, per spec.md §4.5's detect_loops
// option.
func maybeDetectLoops(entries []Entry, cfg Config) []Entry {
	if !cfg.DetectLoops {
		return entries
	}
	result := make([]Entry, len(entries))
	for i, e := range entries {
		if pl, ok := e.Path.(PolylinePath); ok && len(pl.Polyline.Points) >= 3 {
			pts := pl.Polyline.Points
			if pts[0].Dist(pts[len(pts)-1]) <= 10 {
				closed := append(data.Path{}, pts[:len(pts)-1]...)
				result[i] = Entry{ID: e.ID, Path: PolygonPath{Polygon: data.NewPolygon(closed)}}
				continue
			}
		}
		result[i] = e
	}
	return result
}

// --- spatial bucket index ---

type spatialIndex struct {
	bucketSize data.Micrometer
	buckets    map[[2]int64][]int
	cellOf     map[int][2]int64
}

func newSpatialIndex(entries []Entry, bucketSize data.Micrometer) *spatialIndex {
	if bucketSize <= 0 {
		bucketSize = 10_000
	}
	idx := &spatialIndex{
		bucketSize: bucketSize,
		buckets:    map[[2]int64][]int{},
		cellOf:     map[int][2]int64{},
	}
	for _, e := range entries {
		p := e.Path.VertexAt(0)
		cell := idx.cellFor(p)
		idx.buckets[cell] = append(idx.buckets[cell], e.ID)
		idx.cellOf[e.ID] = cell
	}
	return idx
}

func (s *spatialIndex) cellFor(p data.Point) [2]int64 {
	return [2]int64{int64(p.X) / int64(s.bucketSize), int64(p.Y) / int64(s.bucketSize)}
}

// near returns IDs in the 3x3 neighborhood of cells around p that are
// still present in remaining.
func (s *spatialIndex) near(p data.Point, remaining map[int]Entry) []int {
	center := s.cellFor(p)
	var result []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			cell := [2]int64{center[0] + dx, center[1] + dy}
			for _, id := range s.buckets[cell] {
				if _, ok := remaining[id]; ok {
					result = append(result, id)
				}
			}
		}
	}
	return result
}

func (s *spatialIndex) remove(id int) {
	cell, ok := s.cellOf[id]
	if !ok {
		return
	}
	bucket := s.buckets[cell]
	for i, v := range bucket {
		if v == id {
			s.buckets[cell] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	delete(s.cellOf, id)
}

// MakeOrderTransitive closes a constraint set under transitivity: (a,b) and
// (b,c) implies (a,c) (spec.md §4.5, tested by spec.md §8 property 6).
func MakeOrderTransitive(constraints []Constraint) []Constraint {
	edges := map[int]map[int]bool{}
	for _, c := range constraints {
		if edges[c.Before] == nil {
			edges[c.Before] = map[int]bool{}
		}
		edges[c.Before][c.After] = true
	}

	changed := true
	for changed {
		changed = false
		for from, tos := range edges {
			for to := range tos {
				for transitive := range edges[to] {
					if !edges[from][transitive] {
						edges[from][transitive] = true
						changed = true
					}
				}
			}
		}
	}

	var result []Constraint
	// Stable order: sort by (before, after) so output is deterministic.
	froms := make([]int, 0, len(edges))
	for from := range edges {
		froms = append(froms, from)
	}
	sort.Ints(froms)
	for _, from := range froms {
		tos := make([]int, 0, len(edges[from]))
		for to := range edges[from] {
			tos = append(tos, to)
		}
		sort.Ints(tos)
		for _, to := range tos {
			result = append(result, Constraint{Before: from, After: to})
		}
	}
	return result
}
