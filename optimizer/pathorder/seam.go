package pathorder

import (
	"math"

	"github.com/aligator/slicecore/data"
)

// chooseSeam picks the start vertex index of a closed Orderable according to
// cfg, given the caller's current position (spec.md §4.5). current feeds the
// distance component of every mode but RANDOM/USER_SPECIFIED, and is
// recomputed by the caller at every step of the greedy walk so the chosen
// vertex tracks wherever the plan currently is, not a fixed point.
func chooseSeam(path Orderable, cfg SeamConfig, current data.Point) int {
	n := path.NumVertices()
	if n == 0 {
		return 0
	}

	switch cfg.Type {
	case SeamRandom:
		if cfg.RandomFn != nil {
			return cfg.RandomFn(n) % n
		}
		return 0
	case SeamUserSpecified:
		return chooseUserSpecified(path, cfg)
	case SeamSharpestCorner:
		return chooseSharpestCorner(path, cfg, current)
	case SeamShortest:
		fallthrough
	default:
		return chooseShortest(path, current)
	}
}

// chooseShortest scans every vertex and returns the one nearest current
// (spec.md §4.5, SHORTEST). Grounded on CuraEngine's findStartLocation,
// whose non-precomputed path is this same all-vertices distance scan.
func chooseShortest(path Orderable, current data.Point) int {
	n := path.NumVertices()
	best := 0
	bestDist := math.MaxFloat64
	for i := 0; i < n; i++ {
		d := float64(path.VertexAt(i).Dist(current))
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// chooseUserSpecified returns the vertex nearest cfg.UserPoint that also
// matches the corner-preference filter; vertices that don't match the
// filter take a fixed 1m penalty so they only win when nothing matches
// (spec.md §4.5).
func chooseUserSpecified(path Orderable, cfg SeamConfig) int {
	const mismatchPenalty = data.Micrometer(1_000_000) // 1m

	n := path.NumVertices()
	best := 0
	bestScore := math.MaxFloat64

	corners := cornerAngles(path)

	for i := 0; i < n; i++ {
		v := path.VertexAt(i)
		dist := float64(v.Dist(cfg.UserPoint))
		if !matchesCornerPref(corners[i], cfg.CornerPref) {
			dist += float64(mismatchPenalty)
		}
		if dist < bestScore {
			bestScore = dist
			best = i
		}
	}
	return best
}

// chooseSharpestCorner scores every vertex by distance to current combined
// with distance-weighted corner angle and returns the minimum-score vertex
// (spec.md §4.5): score = distance_component - corner_bonus*|angle|. With no
// corner preference there is no angle term to apply, so it degenerates to
// plain nearest-vertex selection (original_source's findStartLocation falls
// back to score_distance when corner_pref == NONE).
func chooseSharpestCorner(path Orderable, cfg SeamConfig, current data.Point) int {
	if cfg.CornerPref == CornerNone {
		return chooseShortest(path, current)
	}

	n := path.NumVertices()
	angles := cornerAngles(path)

	best := 0
	bestScore := math.MaxFloat64
	found := false

	for i := 0; i < n; i++ {
		angle := angles[i]
		if !matchesCornerPref(angle, cfg.CornerPref) {
			continue
		}
		bonus := cfg.CornerBonus
		if bonus == 0 {
			bonus = 1
		}
		distance := float64(path.VertexAt(i).Dist(current))
		score := distance - bonus*math.Abs(angle)
		if score < bestScore {
			bestScore = score
			best = i
			found = true
		}
	}
	if !found {
		return chooseShortest(path, current)
	}
	return best
}

// matchesCornerPref reports whether a signed corner angle (positive =
// convex/outer, negative = concave/inner, by this package's convention)
// satisfies pref.
func matchesCornerPref(angle float64, pref CornerPreference) bool {
	switch pref {
	case CornerInner:
		return angle < 0
	case CornerOuter:
		return angle > 0
	case CornerAny, CornerWeighted, CornerNone:
		return true
	default:
		return true
	}
}

// tinyEdge is the minimum edge length considered significant when walking
// to a vertex's "previous/next non-tiny neighbor" -- below this, a run of
// nearly-collinear vertices is treated as a single corner (spec.md §9).
// Matches original_source's min_edge_length.
const tinyEdge = data.Micrometer(10) // 10 micrometers

// cornerQueryRadius is how far cornerAngleAt walks out from a vertex,
// aggregating weighted contributions from further neighbors, so a cluster
// of fine, nearly-collinear vertices scores as one sharp corner instead of
// one raw angle per vertex (spec.md §4.5). Matches original_source's
// angle_query_distance default.
const cornerQueryRadius = 100.0 // micrometers

// cornerFallOff is the exponent in the neighbor weight
// 1 - (distance/cornerQueryRadius)^cornerFallOff. Matches original_source's
// fall_off_strength default.
const cornerFallOff = 0.5

// turnAngle returns the signed turn angle at here between the incoming edge
// prev->here and the outgoing edge here->next, normalized to roughly
// [-1, 1] by dividing by pi. Positive means the path turns left (convex for
// a CCW outer contour), negative means it turns right (concave).
func turnAngle(prev, here, next data.Point) float64 {
	v1 := here.Sub(prev)
	v2 := next.Sub(here)
	if v1.Size() == 0 || v2.Size() == 0 {
		return 0
	}
	cross := v1.Cross(v2)
	dot := v1.Dot(v2)
	return math.Atan2(float64(cross), float64(dot)) / math.Pi
}

// cornerAngleAt computes vertex i's corner angle: the turn angle at its
// immediate non-tiny neighbors, plus weighted contributions from every
// further point reachable within cornerQueryRadius walking outward in both
// directions. Grounded on original_source's cornerAngle, including its
// continuously-advancing neighbor search (each further step resumes from
// where the last one left off instead of rescanning from i).
func cornerAngleAt(path Orderable, i, n int) float64 {
	here := path.VertexAt(i)

	prevIdx := i
	findPrevious := func(ref data.Point) (data.Point, bool) {
		for steps := 0; steps < n; steps++ {
			prevIdx = (prevIdx - 1 + n) % n
			if prevIdx == i {
				return data.Point{}, false
			}
			p := path.VertexAt(prevIdx)
			if p.Dist(ref) > tinyEdge {
				return p, true
			}
		}
		return data.Point{}, false
	}

	nextIdx := i
	findNext := func(ref data.Point) (data.Point, bool) {
		for steps := 0; steps < n; steps++ {
			nextIdx = (nextIdx + 1) % n
			if nextIdx == i {
				return data.Point{}, false
			}
			p := path.VertexAt(nextIdx)
			if p.Dist(ref) > tinyEdge {
				return p, true
			}
		}
		return data.Point{}, false
	}

	previous, ok := findPrevious(here)
	if !ok {
		return 0
	}
	next, ok := findNext(here)
	if !ok {
		return 0
	}

	total := turnAngle(previous, here, next)

	// Walk further back, summing distance-weighted contributions from every
	// point still within cornerQueryRadius of here.
	dist := float64(here.Dist(previous))
	prevPt := previous
	for dist < cornerQueryRadius {
		further, ok := findPrevious(prevPt)
		if !ok {
			break
		}
		weight := 1 - math.Pow(dist/cornerQueryRadius, cornerFallOff)
		total += turnAngle(further, here, next) * weight
		dist += float64(prevPt.Dist(further))
		prevPt = further
	}

	// Symmetric walk forward.
	dist = float64(here.Dist(next))
	nextPt := next
	for dist < cornerQueryRadius {
		further, ok := findNext(nextPt)
		if !ok {
			break
		}
		weight := 1 - math.Pow(dist/cornerQueryRadius, cornerFallOff)
		total += turnAngle(previous, here, further) * weight
		dist += float64(nextPt.Dist(further))
		nextPt = further
	}

	return total
}

// cornerAngles computes, for each vertex, a signed angle summed with
// distance-weighted contributions from its neighbors, so that a cluster of
// nearly-collinear vertices acts as one corner (spec.md §4.5). Grounded on
// CuraEngine's cornerAngle, with an explicit termination guard for
// degenerate polygons (spec.md §9: "must ensure the find previous/next
// non-tiny neighbor walk terminates on degenerate polygons").
func cornerAngles(path Orderable) []float64 {
	n := path.NumVertices()
	angles := make([]float64, n)
	if n < 3 {
		return angles
	}

	for i := 0; i < n; i++ {
		angles[i] = cornerAngleAt(path, i, n)
	}

	return angles
}
