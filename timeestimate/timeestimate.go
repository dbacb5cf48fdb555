// Package timeestimate computes acceleration-aware print time estimates
// from a sequence of moves, grounded on CuraEngine's
// TimeEstimateCalculator (original_source/include/timeEstimate.h), itself
// adapted from Marlin's planner. GoSlice has no equivalent component (it
// has no time estimator at all), so the style here follows the teacher's
// conventions (small struct, exported "plan"-style method, plain error-free
// API) while the algorithm is grounded directly on the original source.
package timeestimate

import (
	"math"

	"github.com/aligator/slicecore/data"
)

const numAxes = 4 // X Y Z E

const (
	axisX = 0
	axisY = 1
	axisZ = 2
	axisE = 3
)

// position is a 4-axis machine position (mm, mm, mm, mm of filament).
type position [numAxes]float64

// block is a single linear move together with the trapezoid profile
// computed for it.
type block struct {
	feature data.PrintFeature

	delta    position
	absDelta position
	distance float64 // mm: XY length, or |dZ| for a pure Z move, or |dE| for a pure E move (see Plan)

	nominalFeedrate float64 // mm/s
	acceleration    float64 // mm/s^2

	entrySpeed    float64
	maxEntrySpeed float64
	exitSpeed     float64

	nominalLengthFlag bool

	accelerateUntil float64 // mm from block start
	decelerateAfter float64 // mm from block start
}

// Calculator accumulates blocks for one print and, on Calculate, runs the
// three-pass trapezoid algorithm spec.md §4.2 describes: forward pass for
// max reachable entry speed, reverse pass to clamp so each block can still
// decelerate into its successor, then a final pass computing
// accelerate-until/decelerate-after distances per block.
type Calculator struct {
	maxFeedrate     [numAxes]float64
	maxAcceleration [numAxes]float64
	maxXYJerk       float64
	maxZJerk        float64
	maxEJerk        float64
	minFeedrate     float64
	acceleration    float64

	current  position
	hasStart bool

	blocks []*block

	addedTime float64
}

// NewCalculator builds a calculator from the machine's firmware limits.
func NewCalculator(m data.MachineSettings) *Calculator {
	c := &Calculator{
		maxXYJerk:    m.MaxXYJerk,
		maxZJerk:     m.MaxZJerk,
		maxEJerk:     m.MaxEJerk,
		minFeedrate:  0.01,
		acceleration: m.DefaultAcceleration,
	}
	for i := 0; i < numAxes; i++ {
		if m.MaxFeedrate[i] > 0 {
			c.maxFeedrate[i] = m.MaxFeedrate[i]
		} else {
			c.maxFeedrate[i] = 600
		}
		if m.MaxAcceleration[i] > 0 {
			c.maxAcceleration[i] = m.MaxAcceleration[i]
		} else {
			c.maxAcceleration[i] = 3000
		}
	}
	if c.acceleration <= 0 {
		c.acceleration = 3000
	}
	return c
}

// SetPosition resets the calculator's notion of "current position" without
// emitting a block, used when starting a new layer at a known position.
func (c *Calculator) SetPosition(x, y, z, e float64) {
	c.current = position{x, y, z, e}
	c.hasStart = true
}

// AddTime adds static, position-independent time (e.g. a dwell) to the
// total, per spec.md §4.2 "external caller can also contribute static
// added time".
func (c *Calculator) AddTime(seconds float64) {
	c.addedTime += seconds
}

// Plan appends a block derived from the delta against the last position
// (spec.md §4.2: "the estimator is pure with respect to position"). feedrate
// is in mm/s.
func (c *Calculator) Plan(x, y, z, e float64, feedrate float64, feature data.PrintFeature) {
	newPos := position{x, y, z, e}
	if !c.hasStart {
		c.current = newPos
		c.hasStart = true
		return
	}

	delta := position{}
	absDelta := position{}
	for i := 0; i < numAxes; i++ {
		delta[i] = newPos[i] - c.current[i]
		absDelta[i] = math.Abs(delta[i])
	}
	c.current = newPos

	distance := math.Hypot(absDelta[axisX], absDelta[axisY])
	if distance == 0 {
		distance = math.Hypot(distance, absDelta[axisZ])
	}
	if distance == 0 {
		distance = absDelta[axisE]
	}
	if distance == 0 {
		return
	}

	feedrate = clampFeedrate(feedrate, absDelta, distance, c.maxFeedrate)
	if feedrate < c.minFeedrate {
		feedrate = c.minFeedrate
	}

	accel := c.blockAcceleration(absDelta, distance)

	b := &block{
		feature:         feature,
		delta:           delta,
		absDelta:        absDelta,
		distance:        distance,
		nominalFeedrate: feedrate,
		acceleration:    accel,
		exitSpeed:       c.minFeedrate,
	}
	b.maxEntrySpeed = feedrate
	b.entrySpeed = c.minFeedrate

	c.blocks = append(c.blocks, b)
}

// clampFeedrate caps feedrate so that no axis exceeds its own max feedrate
// given the move's per-axis proportions.
func clampFeedrate(feedrate float64, absDelta position, distance float64, maxFeedrate [numAxes]float64) float64 {
	for axis := 0; axis < numAxes; axis++ {
		if absDelta[axis] == 0 || maxFeedrate[axis] <= 0 {
			continue
		}
		axisFeedrate := feedrate * absDelta[axis] / distance
		if axisFeedrate > maxFeedrate[axis] {
			feedrate *= maxFeedrate[axis] / axisFeedrate
		}
	}
	return feedrate
}

func (c *Calculator) blockAcceleration(absDelta position, distance float64) float64 {
	accel := c.acceleration
	for axis := 0; axis < numAxes; axis++ {
		if absDelta[axis] == 0 || c.maxAcceleration[axis] <= 0 {
			continue
		}
		axisAccel := accel * absDelta[axis] / distance
		if axisAccel > c.maxAcceleration[axis] {
			accel *= c.maxAcceleration[axis] / axisAccel
		}
	}
	return accel
}

// junctionMaxSpeed bounds the entry speed of `cur` given the jerk allowed
// across the corner from `prev`.
func (c *Calculator) junctionMaxSpeed(prev, cur *block) float64 {
	maxSpeed := cur.nominalFeedrate

	for axis := 0; axis < numAxes; axis++ {
		var jerk float64
		switch axis {
		case axisX, axisY:
			jerk = c.maxXYJerk
		case axisZ:
			jerk = c.maxZJerk
		case axisE:
			jerk = c.maxEJerk
		}
		if jerk <= 0 {
			continue
		}
		speedDelta := math.Abs(prev.delta[axis]/prev.distance*prev.nominalFeedrate - cur.delta[axis]/cur.distance*cur.nominalFeedrate)
		if speedDelta > jerk {
			scale := jerk / speedDelta
			if maxSpeed > cur.nominalFeedrate*scale {
				maxSpeed = cur.nominalFeedrate * scale
			}
		}
	}
	return maxSpeed
}

func maxSpeedForDistance(targetSpeed, accel, distance float64) float64 {
	v := targetSpeed*targetSpeed - 2*accel*distance
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// forwardPass propagates the maximum entry speed reachable under
// acceleration from the start of the plan.
func (c *Calculator) forwardPass() {
	for i, b := range c.blocks {
		if i == 0 {
			b.entrySpeed = c.minFeedrate
			continue
		}
		prev := c.blocks[i-1]
		reachable := maxSpeedForDistance(prev.entrySpeed, -prev.acceleration, prev.distance)
		junction := c.junctionMaxSpeed(prev, b)
		entry := math.Min(reachable, junction)
		if entry > b.maxEntrySpeed {
			entry = b.maxEntrySpeed
		}
		b.entrySpeed = entry
	}
}

// reversePass clamps entry speeds so each block can still decelerate to
// its successor's entry speed.
func (c *Calculator) reversePass() {
	for i := len(c.blocks) - 2; i >= 0; i-- {
		cur := c.blocks[i]
		next := c.blocks[i+1]
		maxExit := maxSpeedForDistance(next.entrySpeed, -cur.acceleration, cur.distance)
		if maxExit < cur.entrySpeed {
			cur.entrySpeed = maxExit
		}
	}
}

// recalculateTrapezoids computes, for each block, the accelerate-until and
// decelerate-after distances (final pass of spec.md §4.2's algorithm).
func (c *Calculator) recalculateTrapezoids() {
	for i, b := range c.blocks {
		exitSpeed := c.minFeedrate
		if i+1 < len(c.blocks) {
			exitSpeed = c.blocks[i+1].entrySpeed
		}
		b.exitSpeed = exitSpeed

		accelDist := accelerationDistance(b.entrySpeed, b.nominalFeedrate, b.acceleration)
		decelDist := accelerationDistance(b.nominalFeedrate, exitSpeed, b.acceleration)

		if accelDist+decelDist >= b.distance {
			// Triangle profile: never reaches nominal feedrate.
			accelDist = clamp((b.distance+accelerationDistance(b.entrySpeed, exitSpeed, b.acceleration))/2, 0, b.distance)
			decelDist = b.distance - accelDist
		}

		b.accelerateUntil = accelDist
		b.decelerateAfter = b.distance - decelDist
	}
}

func accelerationDistance(v0, v1, accel float64) float64 {
	if accel <= 0 {
		return 0
	}
	d := (v1*v1 - v0*v0) / (2 * accel)
	if d < 0 {
		return 0
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// blockTime returns the time, in seconds, to traverse a trapezoid-profile
// block.
func blockTime(b *block) float64 {
	accelDist := b.accelerateUntil
	decelDist := b.distance - b.decelerateAfter
	plateauDist := b.distance - accelDist - decelDist
	if plateauDist < 0 {
		plateauDist = 0
	}

	var t float64
	if b.acceleration > 0 {
		if accelDist > 0 {
			t += 2 * accelDist / (b.entrySpeed + b.nominalFeedrate)
		}
		if decelDist > 0 {
			t += 2 * decelDist / (b.nominalFeedrate + b.exitSpeed)
		}
	}
	if b.nominalFeedrate > 0 {
		t += plateauDist / b.nominalFeedrate
	}
	return t
}

// Calculate runs the full three-pass algorithm and returns the total time
// broken down by feature kind (spec.md §4.2).
func (c *Calculator) Calculate() data.Estimates {
	c.forwardPass()
	c.reversePass()
	c.recalculateTrapezoids()

	est := data.NewEstimates()
	for _, b := range c.blocks {
		est.Add(b.feature, blockTime(b), 0)
	}
	if c.addedTime > 0 {
		est.TimePerFeature[data.FeatureNone] += c.addedTime
	}
	return est
}

// Reset clears all planned blocks and added time, keeping firmware limits,
// so the same calculator can be reused layer to layer.
func (c *Calculator) Reset() {
	c.blocks = nil
	c.addedTime = 0
	c.hasStart = false
}
