// tello project telemetry_test.go

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
	"testing"

	"github.com/pkg/errors"
)

func testFlightPayload() []byte {
	pl := make([]byte, flightDataLen)
	pl[0], pl[1] = 0x34, 0x12 // height
	pl[2], pl[3] = 0xff, 0xff // north speed -1
	pl[4], pl[5] = 0x05, 0x00
	pl[6], pl[7] = 0x00, 0x80 // vertical speed wraps negative
	pl[8], pl[9] = 0x2c, 0x01 // fly time 300
	pl[10] = 0xaa             // pressure, power, gravity, wind
	pl[11] = 7
	pl[12] = 88
	pl[13], pl[14] = 0x10, 0x00
	pl[15], pl[16] = 0x20, 0x01
	pl[17] = 0x55 // flying, em open, outage recording, battery lower
	pl[18] = 6
	pl[19] = 2
	pl[20] = 1
	pl[21] = 9
	pl[22] = 0x05 // front in, front LSC
	pl[23] = 0x01
	return pl
}

func TestFlightDataDecode(t *testing.T) {
	fd, err := payloadToFlightData(testFlightPayload())
	if err != nil {
		t.Fatalf("Decode failed with %v", err)
	}
	if fd.Height != 0x1234 || fd.NorthSpeed != -1 || fd.EastSpeed != 5 || fd.VerticalSpeed != -32768 || fd.FlyTime != 300 {
		t.Errorf("Kinematic fields wrong: %+v", fd)
	}
	if fd.ImuState || !fd.PressureState || fd.DownVisualState || !fd.PowerState ||
		fd.BatteryState || !fd.GravityState || !fd.WindState {
		t.Errorf("First status byte wrong: %+v", fd)
	}
	if fd.ImuCalibrationState != 7 || fd.BatteryPercentage != 88 || fd.DroneBatteryLeft != 16 || fd.DroneFlyTimeLeft != 0x0120 {
		t.Errorf("Battery fields wrong: %+v", fd)
	}
	if !fd.Flying || fd.OnGround || !fd.EmOpen || fd.DroneHover ||
		!fd.OutageRecording || fd.BatteryLow || !fd.BatteryLower || fd.FactoryMode {
		t.Errorf("Second status byte wrong: %+v", fd)
	}
	if fd.FlyMode != 6 || fd.ThrowFlyTimer != 2 || fd.CameraState != 1 || fd.ElectricalMachineryState != 9 {
		t.Errorf("Mode fields wrong: %+v", fd)
	}
	if !fd.FrontIn || fd.FrontOut || !fd.FrontLSC || !fd.TemperatureHigh {
		t.Errorf("Front/temperature flags wrong: %+v", fd)
	}
}

func TestFlightDataViaParse(t *testing.T) {
	cmd := NewCommand(MsgFlightStatus, PtData1)
	cmd.Write(testFlightPayload())
	msg, err := ParseMessage(cmd.Encode(40))
	if err != nil {
		t.Fatalf("ParseMessage failed with %v", err)
	}
	fd, ok := msg.(*Package).Data.(*FlightData)
	if !ok {
		t.Fatalf("Expected *FlightData, got %T", msg.(*Package).Data)
	}
	if fd.BatteryPercentage != 88 {
		t.Errorf("Expected battery 88, got %d", fd.BatteryPercentage)
	}
}

func TestShortPayloads(t *testing.T) {
	for _, tc := range []struct {
		cmd CommandID
		pl  []byte
	}{
		{MsgFlightStatus, make([]byte, 23)},
		{MsgWifiStrength, []byte{1}},
		{MsgLightStrength, nil},
		{MsgQueryVersion, nil},
		{MsgQueryHeightLimit, []byte{0, 1}},
		{MsgLogHeader, make([]byte, 10)},
	} {
		if _, err := decodePayload(tc.cmd, tc.pl); !errors.Is(err, ErrShortPayload) {
			t.Errorf("%v with %d bytes: expected ErrShortPayload, got %v", tc.cmd, len(tc.pl), err)
		}
	}
}

func TestSimplePayloads(t *testing.T) {
	d, err := decodePayload(MsgWifiStrength, []byte{90, 3})
	if err != nil || d != (WifiInfo{Strength: 90, Disturb: 3}) {
		t.Errorf("Wifi: got %v, %v", d, err)
	}
	d, err = decodePayload(MsgLightStrength, []byte{1})
	if err != nil || d != (LightInfo{Good: 1}) {
		t.Errorf("Light: got %v, %v", d, err)
	}
	d, err = decodePayload(MsgQueryVersion, []byte{0, 'v', '0', '1', '.', '0', '4', 0, 0})
	if err != nil || d != Version("v01.04") {
		t.Errorf("Version: got %q, %v", d, err)
	}
	d, err = decodePayload(MsgQueryHeightLimit, []byte{0, 0x1e, 0})
	if err != nil || d != AltLimit(30) {
		t.Errorf("AltLimit: got %v, %v", d, err)
	}
	d, err = decodePayload(MsgDoBounce, []byte{1, 2})
	if raw, ok := d.(Unknown); err != nil || !ok || len(raw) != 2 {
		t.Errorf("Unknown: got %v, %v", d, err)
	}
}

func TestLogHeaderDecode(t *testing.T) {
	pl := make([]byte, logHeaderSkip)
	pl = append(pl, 0x34, 0x12)
	pl = append(pl, []byte("hello\x00junk")...)
	lm, err := payloadToLogMessage(pl)
	if err != nil {
		t.Fatalf("Decode failed with %v", err)
	}
	if lm.ID != 0x1234 || lm.Message != "hello" {
		t.Errorf("Expected id 0x1234 'hello', got %#x %q", lm.ID, lm.Message)
	}

	// no terminator, the message runs to the end
	lm, err = payloadToLogMessage(append(make([]byte, logHeaderSkip), 1, 0, 'a', 'b'))
	if err != nil || lm.Message != "ab" {
		t.Errorf("Unterminated message: got %+v, %v", lm, err)
	}
}
