// odometry.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package tello

import (
	"math"
	"sync"
)

// distances and angles the drone accepts for a single relative move
const (
	minMoveCm  = 20
	maxMoveCm  = 500
	minTurnDeg = 1
	maxTurnDeg = 3600
)

// Odometry is a dead-reckoning estimate of where the drone is, relative to
// where it was when last reset.  It is updated only from commanded moves.
// Heading is in radians, counter-clockwise positive; forward is +y at heading 0.
type Odometry struct {
	mu      sync.Mutex
	x, y, z float64
	heading float64
}

func clampU32(v, lo, hi uint32) float64 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return float64(v)
}

func (o *Odometry) translate(dx, dy float64) {
	sin, cos := math.Sincos(o.heading)
	o.x += dx*cos - dy*sin
	o.y += dx*sin + dy*cos
}

func (o *Odometry) move(dx, dy float64) {
	o.mu.Lock()
	o.translate(dx, dy)
	o.mu.Unlock()
}

func (o *Odometry) climb(dz float64) {
	o.mu.Lock()
	o.z += dz
	o.mu.Unlock()
}

func (o *Odometry) rotate(rad float64) {
	o.mu.Lock()
	o.heading += rad
	o.mu.Unlock()
}

// Reset returns the estimate to the origin.
func (o *Odometry) Reset() {
	o.mu.Lock()
	o.x, o.y, o.z, o.heading = 0, 0, 0, 0
	o.mu.Unlock()
}

// Forward records a move of cm centimetres along the current heading.
func (o *Odometry) Forward(cm uint32) { o.move(0, clampU32(cm, minMoveCm, maxMoveCm)) }

// Back records a move of cm centimetres opposite to the current heading.
func (o *Odometry) Back(cm uint32) { o.move(0, -clampU32(cm, minMoveCm, maxMoveCm)) }

// Left records a sideways move to the left.
func (o *Odometry) Left(cm uint32) { o.move(-clampU32(cm, minMoveCm, maxMoveCm), 0) }

// Right records a sideways move to the right.
func (o *Odometry) Right(cm uint32) { o.move(clampU32(cm, minMoveCm, maxMoveCm), 0) }

// Up records a climb.
func (o *Odometry) Up(cm uint32) { o.climb(clampU32(cm, minMoveCm, maxMoveCm)) }

// Down records a descent.
func (o *Odometry) Down(cm uint32) { o.climb(-clampU32(cm, minMoveCm, maxMoveCm)) }

// Clockwise records a turn of deg degrees to the right.
func (o *Odometry) Clockwise(deg uint32) {
	o.rotate(-clampU32(deg, minTurnDeg, maxTurnDeg) / 180 * math.Pi)
}

// CounterClockwise records a turn of deg degrees to the left.
func (o *Odometry) CounterClockwise(deg uint32) {
	o.rotate(clampU32(deg, minTurnDeg, maxTurnDeg) / 180 * math.Pi)
}

// Position returns the current estimate, heading in radians.
func (o *Odometry) Position() (x, y, z, heading float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.x, o.y, o.z, o.heading
}

// HeadingDegrees returns the heading normalised to [0, 360).
func (o *Odometry) HeadingDegrees() float64 {
	o.mu.Lock()
	h := o.heading
	o.mu.Unlock()
	deg := math.Mod(h*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
