// tello project sticks_test.go

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
	"bytes"
	"testing"
	"time"
)

func axisField(packed uint64, shift uint) uint64 {
	return (packed >> shift) & 0x07ff
}

func TestPackAxesCentre(t *testing.T) {
	packed := PackAxes(0, 0, 0, 0, false)
	for _, shift := range []uint{0, 11, 22, 33} {
		if v := axisField(packed, shift); v != stickCentre {
			t.Errorf("Axis at bit %d: expected %d, got %d", shift, stickCentre, v)
		}
	}
	if packed>>44 != 0 {
		t.Error("Fast flag set in slow mode")
	}
}

func TestPackAxesLimits(t *testing.T) {
	packed := PackAxes(1, -1, 1, -1, true)
	if v := axisField(packed, 0); v != 1684 {
		t.Errorf("Roll: expected 1684, got %d", v)
	}
	if v := axisField(packed, 11); v != 364 {
		t.Errorf("Nick: expected 364, got %d", v)
	}
	if v := axisField(packed, 22); v != 1684 {
		t.Errorf("Pitch: expected 1684, got %d", v)
	}
	if v := axisField(packed, 33); v != 364 {
		t.Errorf("Yaw: expected 364, got %d", v)
	}
	if packed>>44 != 1 {
		t.Error("Fast flag not in bit 44")
	}
}

func TestStickCommand(t *testing.T) {
	when := time.Date(2024, 3, 5, 13, 45, 30, 250*int(time.Millisecond), time.Local)
	cmd := newStickCommand(0, 0, 0, 0, false, when)
	if cmd.ID != MsgSetStick || cmd.Type != PtData2 || !cmd.ZeroSequence {
		t.Errorf("Wrong stick command header: %+v", cmd)
	}
	pl := cmd.Payload()
	if len(pl) != 11 {
		t.Fatalf("Expected 11 byte payload, got %d", len(pl))
	}
	packed := PackAxes(0, 0, 0, 0, false)
	for i := 0; i < 6; i++ {
		if pl[i] != byte(packed>>(8*i)) {
			t.Errorf("Axis byte %d: expected %02x, got %02x", i, byte(packed>>(8*i)), pl[i])
		}
	}
	if !bytes.Equal(pl[6:], []byte{13, 45, 30, 250, 0}) {
		t.Errorf("Time bytes wrong: % x", pl[6:])
	}
}

func TestStickParameterMapping(t *testing.T) {
	var rc RCState
	rc.GoUp()
	rc.GoBack()
	rc.GoLeft()
	rc.TurnClockwise()
	rc.SetFast(true)
	pitch, nick, roll, yaw, fast := rc.StickParameter()
	if pitch != 1 || nick != -1 || roll != -1 || yaw != 1 || !fast {
		t.Errorf("Got pitch %v nick %v roll %v yaw %v fast %v", pitch, nick, roll, yaw, fast)
	}

	rc.Hover()
	pitch, nick, roll, yaw, _ = rc.StickParameter()
	if pitch != 0 || nick != 0 || roll != 0 || yaw != 0 {
		t.Errorf("Hover left pitch %v nick %v roll %v yaw %v", pitch, nick, roll, yaw)
	}

	rc.GoForwardBack(0.5)
	rc.StopForwardBack()
	rc.GoUpDown(-0.25)
	if pitch, nick, _, _, _ = rc.StickParameter(); pitch != -0.25 || nick != 0 {
		t.Errorf("Analog: got pitch %v nick %v", pitch, nick)
	}
}

func TestStartEnginesExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rc := RCState{clock: func() time.Time { return now }}
	rc.GoForward()

	rc.StartEngines()
	pitch, nick, roll, yaw, fast := rc.StickParameter()
	if pitch != -1 || nick != -1 || roll != -1 || yaw != 1 || !fast {
		t.Errorf("Start position wrong: %v %v %v %v %v", pitch, nick, roll, yaw, fast)
	}

	now = now.Add(349 * time.Millisecond)
	if _, nick, _, _, _ = rc.StickParameter(); nick != -1 {
		t.Error("Start position released early")
	}

	now = now.Add(2 * time.Millisecond)
	pitch, nick, roll, yaw, fast = rc.StickParameter()
	if pitch != 0 || nick != 1 || roll != 0 || yaw != 0 || fast {
		t.Errorf("Axes not restored after start: %v %v %v %v %v", pitch, nick, roll, yaw, fast)
	}
}

func TestAnalogOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for axis value 1.5")
		}
	}()
	var rc RCState
	rc.Turn(1.5)
}
