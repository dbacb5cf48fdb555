// Package data holds the geometric primitives, path/plan containers and
// settings bundle shared by every other package in slicecore. It plays the
// role GoSlice's data package plays for GoSlice: every other package talks
// to the rest of the world through these types, never through raw floats.
package data

import "math"

// Micrometer is the fixed-point unit used for every on-plane coordinate.
// All geometry is integer so that set operations (clip.Clipper) are
// deterministic regardless of input order or platform.
type Micrometer int64

// Millimeter is the human-facing unit used by settings.
type Millimeter float64

// ToMicrometer converts a millimeter value to the internal fixed-point unit.
func (m Millimeter) ToMicrometer() Micrometer {
	return Micrometer(math.Round(float64(m) * 1000))
}

// ToMillimeter converts back to millimeters for display/gcode emission.
func (m Micrometer) ToMillimeter() Millimeter {
	return Millimeter(m) / 1000
}

// Point is a fixed-point 2D coordinate in micrometers.
type Point struct {
	X, Y Micrometer
}

// NewPoint builds a Point from raw micrometer coordinates.
func NewPoint(x, y Micrometer) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

func (p Point) Mul(f float64) Point {
	return Point{Micrometer(float64(p.X) * f), Micrometer(float64(p.Y) * f)}
}

// Dot returns the dot product of p and o, interpreted as vectors.
func (p Point) Dot(o Point) int64 {
	return int64(p.X)*int64(o.X) + int64(p.Y)*int64(o.Y)
}

// Cross returns the 2D cross product (z-component) of p and o.
func (p Point) Cross(o Point) int64 {
	return int64(p.X)*int64(o.Y) - int64(p.Y)*int64(o.X)
}

// Size returns the Euclidean length of p interpreted as a vector, in
// micrometers.
func (p Point) Size() Micrometer {
	return Micrometer(math.Hypot(float64(p.X), float64(p.Y)))
}

// Size2 returns the squared length, avoiding the sqrt for distance
// comparisons.
func (p Point) Size2() int64 {
	return int64(p.X)*int64(p.X) + int64(p.Y)*int64(p.Y)
}

// Dist returns the distance between p and o.
func (p Point) Dist(o Point) Micrometer {
	return p.Sub(o).Size()
}

// ShorterThan reports whether p, as a vector, is shorter than dist.
func (p Point) ShorterThan(dist Micrometer) bool {
	return p.Size2() < int64(dist)*int64(dist)
}

// ShorterThanOrEqual reports whether p, as a vector, has length <= dist.
func (p Point) ShorterThanOrEqual(dist Micrometer) bool {
	return p.Size2() <= int64(dist)*int64(dist)
}

// Normal returns p scaled to the given length, preserving direction.
func (p Point) Normal(length Micrometer) Point {
	l := p.Size()
	if l == 0 {
		return Point{}
	}
	return p.Mul(float64(length) / float64(l))
}

// CrossZ rotates p by 90 degrees (used to compute an outward normal of an
// edge direction vector).
func (p Point) CrossZ() Point {
	return Point{-p.Y, p.X}
}

// Angle returns the angle of p as a vector, in radians, in (-pi, pi].
func (p Point) Angle() float64 {
	return math.Atan2(float64(p.Y), float64(p.X))
}

// ToRadians converts degrees to radians. Kept as a free function (mirrors
// GoSlice's data.ToRadians) since it is used outside of Point math too
// (support-angle threshold calculations).
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Lerp linearly interpolates between p and o at t in [0,1].
func Lerp(p, o Point, t float64) Point {
	return Point{
		X: p.X + Micrometer(float64(o.X-p.X)*t),
		Y: p.Y + Micrometer(float64(o.Y-p.Y)*t),
	}
}
