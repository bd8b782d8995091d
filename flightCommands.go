// flightCommands.go

// This file contains the high-level Tello flight command API

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
	"encoding/binary"
	"math"
)

// TakeOff sends a normal takeoff request to the Tello.
// The odometry is raised by the nominal takeoff height whether or not the send succeeds.
func (tello *Tello) TakeOff() error {
	tello.Odometry.Up(takeOffHeightCm)
	return tello.sendCmd("takeoff", NewCommand(MsgDoTakeoff, PtSet))
}

// nominal height after takeoff
const takeOffHeightCm = 100

// ThrowTakeOff initiates a 'throw and go' launch
func (tello *Tello) ThrowTakeOff() error {
	cmd := NewCommand(MsgDoThrowTakeoff, PtGet)
	cmd.WriteU8(0)
	return tello.sendCmd("throw takeoff", cmd)
}

// Land sends a normal Land request to the Tello
func (tello *Tello) Land() error {
	cmd := NewCommand(MsgDoLand, PtSet)
	cmd.WriteU8(0)
	return tello.sendCmd("land", cmd)
}

// StopLand aborts a landing in progress.
func (tello *Tello) StopLand() error {
	cmd := NewCommand(MsgDoLand, PtSet)
	cmd.WriteU8(1)
	return tello.sendCmd("stop land", cmd)
}

// PalmLand initiates a Palm Landing
func (tello *Tello) PalmLand() error {
	cmd := NewCommand(MsgDoPalmLand, PtSet)
	cmd.WriteU8(0)
	return tello.sendCmd("palm land", cmd)
}

// Flip sends a flip in the given direction.
func (tello *Tello) Flip(dir FlipType) error {
	cmd := NewZeroSeqCommand(MsgDoFlip, PtFlip)
	cmd.WriteU8(byte(dir))
	return tello.sendCmd("flip", cmd)
}

// Bounce starts the Tello bouncing up and down.
func (tello *Tello) Bounce() error {
	cmd := NewCommand(MsgDoBounce, PtSet)
	cmd.WriteU8(0x30)
	return tello.sendCmd("bounce", cmd)
}

// BounceStop stops the bouncing.
func (tello *Tello) BounceStop() error {
	cmd := NewCommand(MsgDoBounce, PtSet)
	cmd.WriteU8(0x31)
	return tello.sendCmd("bounce stop", cmd)
}

// GetVersion requests the firmware version, the reply arrives as a Version via Poll.
func (tello *Tello) GetVersion() error {
	return tello.sendCmd("get version", NewCommand(MsgQueryVersion, PtGet))
}

// GetAltLimit requests the maximum height, the reply arrives as an AltLimit.
func (tello *Tello) GetAltLimit() error {
	return tello.sendCmd("get height limit", NewCommand(MsgQueryHeightLimit, PtSet))
}

// SetAltLimit sets the maximum height in metres.
func (tello *Tello) SetAltLimit(limit uint8) error {
	cmd := NewCommand(MsgSetHeightLimit, PtSet)
	cmd.WriteU8(limit)
	cmd.WriteU8(0)
	return tello.sendCmd("set height limit", cmd)
}

// GetAttAngle requests the attitude (tilt) limit.
func (tello *Tello) GetAttAngle() error {
	return tello.sendCmd("get attitude limit", NewCommand(MsgQueryAttitude, PtSet))
}

// SetAttAngle sets the attitude (tilt) limit in degrees.
func (tello *Tello) SetAttAngle(deg float32) error {
	cmd := NewCommand(MsgSetAttitude, PtSet)
	cmd.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(deg)))
	return tello.sendCmd("set attitude limit", cmd)
}

// GetBatteryThreshold requests the low battery warning level.
func (tello *Tello) GetBatteryThreshold() error {
	return tello.sendCmd("get low battery threshold", NewCommand(MsgQueryLowBattThresh, PtSet))
}

// SetBatteryThreshold sets the low battery warning level, in percent.
func (tello *Tello) SetBatteryThreshold(threshold uint8) error {
	cmd := NewCommand(MsgSetLowBattThresh, PtSet)
	cmd.WriteU8(threshold)
	return tello.sendCmd("set low battery threshold", cmd)
}

// GetRegion requests the Wi-Fi region.
func (tello *Tello) GetRegion() error {
	return tello.sendCmd("get region", NewCommand(MsgSetWifiRegion, PtGet))
}

// SendStick sends one stick command with the given axes, each in the range -1 to 1.
// pitch is up/down, nick forward/back, roll left/right and yaw the turn.
func (tello *Tello) SendStick(pitch, nick, roll, yaw float64, fast bool) error {
	return tello.sendCmd("stick", newStickCommand(pitch, nick, roll, yaw, fast, tello.clock()))
}

// StartEngines spins up the motors without taking off, by holding the
// sticks in the start position for the next few heartbeats.
func (tello *Tello) StartEngines() {
	tello.RC.StartEngines()
}

// *** The following are 'macro' commands which are here purely
// *** to make the Tello easier to use in some circumstances.

// Hover simply sets the sticks to zero - useful as a panic action!
func (tello *Tello) Hover() {
	tello.RC.Hover()
}

func pctToAxis(pct int) float64 {
	switch {
	case pct <= 0:
		return 0
	case pct >= 100:
		return 1
	}
	return float64(pct) / 100
}

// Forward tells the drone to start moving forward at a given speed between 0 and 100
func (tello *Tello) Forward(pct int) { tello.RC.GoForwardBack(pctToAxis(pct)) }

// Backward tells the drone to start moving Backward at a given speed between 0 and 100
func (tello *Tello) Backward(pct int) { tello.RC.GoForwardBack(-pctToAxis(pct)) }

// Left tells the drone to start moving Left at a given speed between 0 and 100
func (tello *Tello) Left(pct int) { tello.RC.GoLeftRight(-pctToAxis(pct)) }

// Right tells the drone to start moving Right at a given speed between 0 and 100
func (tello *Tello) Right(pct int) { tello.RC.GoLeftRight(pctToAxis(pct)) }

// Up tells the drone to start moving Up at a given speed between 0 and 100
func (tello *Tello) Up(pct int) { tello.RC.GoUpDown(pctToAxis(pct)) }

// Down tells the drone to start moving Down at a given speed between 0 and 100
func (tello *Tello) Down(pct int) { tello.RC.GoUpDown(-pctToAxis(pct)) }

// Clockwise tells the drone to start rotating Clockwise at a given speed between 0 and 100
func (tello *Tello) Clockwise(pct int) { tello.RC.Turn(pctToAxis(pct)) }

// TurnRight is an alias for Clockwise()
func (tello *Tello) TurnRight(pct int) { tello.Clockwise(pct) }

// Anticlockwise tells the drone to start rotating Anticlockwise at a given speed between 0 and 100
func (tello *Tello) Anticlockwise(pct int) { tello.RC.Turn(-pctToAxis(pct)) }

// TurnLeft is an alias for Anticlockwise()
func (tello *Tello) TurnLeft(pct int) { tello.Anticlockwise(pct) }

// *** End of 'macro' commands ***
