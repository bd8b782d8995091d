// sticks.go

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
	"fmt"
	"sync"
	"time"
)

// how long the 'start engines' stick combination is held
const startEnginesPeriod = 350 * time.Millisecond

const (
	stickCentre = 1024
	stickSpan   = 660
)

// RCState holds the four remote-control axes, each in the range -1.0 to 1.0.
// Its zero value is a centred, slow-mode controller.
type RCState struct {
	mu          sync.Mutex
	leftRight   float64
	forwardBack float64
	upDown      float64
	turn        float64
	fast        bool      // are we in 'sports' (a.k.a. 'Fast') mode?
	engineStart time.Time // zero when no start is pending
	clock       func() time.Time
}

func (rc *RCState) now() time.Time {
	if rc.clock == nil {
		return time.Now()
	}
	return rc.clock()
}

func (rc *RCState) set(axis *float64, v float64) {
	rc.mu.Lock()
	*axis = v
	rc.mu.Unlock()
}

func checkAxis(name string, v float64) {
	if v < -1 || v > 1 {
		panic(fmt.Sprintf("tello: %s axis value %v outside [-1, 1]", name, v))
	}
}

// GoLeft moves the roll axis fully left.
func (rc *RCState) GoLeft() { rc.set(&rc.leftRight, -1) }

// GoRight moves the roll axis fully right.
func (rc *RCState) GoRight() { rc.set(&rc.leftRight, 1) }

// StopLeftRight centres the roll axis.
func (rc *RCState) StopLeftRight() { rc.set(&rc.leftRight, 0) }

// GoForward moves the nick axis fully forward.
func (rc *RCState) GoForward() { rc.set(&rc.forwardBack, 1) }

// GoBack moves the nick axis fully back.
func (rc *RCState) GoBack() { rc.set(&rc.forwardBack, -1) }

// StopForwardBack centres the nick axis.
func (rc *RCState) StopForwardBack() { rc.set(&rc.forwardBack, 0) }

// GoUp sets full climb.
func (rc *RCState) GoUp() { rc.set(&rc.upDown, 1) }

// GoDown sets full descent.
func (rc *RCState) GoDown() { rc.set(&rc.upDown, -1) }

// StopUpDown centres the throttle axis.
func (rc *RCState) StopUpDown() { rc.set(&rc.upDown, 0) }

// TurnClockwise sets full clockwise yaw.
func (rc *RCState) TurnClockwise() { rc.set(&rc.turn, 1) }

// TurnCounterClockwise sets full counter-clockwise yaw.
func (rc *RCState) TurnCounterClockwise() { rc.set(&rc.turn, -1) }

// StopTurn centres the yaw axis.
func (rc *RCState) StopTurn() { rc.set(&rc.turn, 0) }

// GoLeftRight sets the roll axis from an analog input, negative is left.
// Values outside [-1, 1] are a programming error and panic.
func (rc *RCState) GoLeftRight(v float64) {
	checkAxis("left/right", v)
	rc.set(&rc.leftRight, v)
}

// GoForwardBack sets the nick axis from an analog input, positive is forward.
func (rc *RCState) GoForwardBack(v float64) {
	checkAxis("forward/back", v)
	rc.set(&rc.forwardBack, v)
}

// GoUpDown sets the throttle axis from an analog input, positive is up.
func (rc *RCState) GoUpDown(v float64) {
	checkAxis("up/down", v)
	rc.set(&rc.upDown, v)
}

// Turn sets the yaw axis from an analog input, positive is clockwise.
func (rc *RCState) Turn(v float64) {
	checkAxis("turn", v)
	rc.set(&rc.turn, v)
}

// SetFast selects sports mode.
func (rc *RCState) SetFast(fast bool) {
	rc.mu.Lock()
	rc.fast = fast
	rc.mu.Unlock()
}

// Hover simply sets the sticks to zero - useful as a panic action!
func (rc *RCState) Hover() {
	rc.mu.Lock()
	rc.leftRight, rc.forwardBack, rc.upDown, rc.turn = 0, 0, 0, 0
	rc.mu.Unlock()
}

// StartEngines holds both sticks down and inwards for a short period, which
// spins up the motors without taking off.
func (rc *RCState) StartEngines() {
	rc.mu.Lock()
	rc.engineStart = rc.now()
	rc.mu.Unlock()
}

// StickParameter returns the values to be sent in the next stick command.
func (rc *RCState) StickParameter() (pitch, nick, roll, yaw float64, fast bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.engineStart.IsZero() {
		if rc.now().Sub(rc.engineStart) < startEnginesPeriod {
			return -1, -1, -1, 1, true
		}
		rc.engineStart = time.Time{}
	}
	return rc.upDown, rc.forwardBack, rc.leftRight, rc.turn, rc.fast
}

func axisToTello(v float64) uint64 {
	return uint64(int64(stickCentre+stickSpan*v)) & 0x07ff
}

// PackAxes packs the four axes and the fast flag into the 45-bit stick value:
// roll in bits 0-10, nick 11-21, pitch 22-32, yaw 33-43 and fast in bit 44.
func PackAxes(pitch, nick, roll, yaw float64, fast bool) uint64 {
	// This packing of the joystick data is just vile...
	packedAxes := axisToTello(roll)
	packedAxes |= axisToTello(nick) << 11
	packedAxes |= axisToTello(pitch) << 22
	packedAxes |= axisToTello(yaw) << 33
	if fast {
		packedAxes |= 1 << 44
	}
	return packedAxes
}

// newStickCommand builds the stick message for the given axes, stamped with t.
func newStickCommand(pitch, nick, roll, yaw float64, fast bool, t time.Time) *Command {
	cmd := NewZeroSeqCommand(MsgSetStick, PtData2)
	packedAxes := PackAxes(pitch, nick, roll, yaw, fast)
	for shift := 0; shift < 48; shift += 8 {
		cmd.WriteU8(byte(packedAxes >> shift))
	}
	addTime(cmd, t)
	return cmd
}

// addTime appends the local time of day: hour, minute, second and milliseconds.
func addTime(cmd *Command, t time.Time) {
	cmd.WriteU8(byte(t.Hour()))
	cmd.WriteU8(byte(t.Minute()))
	cmd.WriteU8(byte(t.Second()))
	cmd.WriteU16(uint16(t.Nanosecond() / int(time.Millisecond)))
}
