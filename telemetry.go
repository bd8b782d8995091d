// telemetry.go

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
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// PackageData is the decoded payload of a *Package.
type PackageData interface {
	isPackageData()
}

// NoData is the payload of a package which carried no bytes.
type NoData struct{}

// Unknown holds the raw payload of a package this library does not interpret.
type Unknown []byte

// Version is the firmware version string.
type Version string

// AltLimit is the maximum height setting, in metres.
type AltLimit uint16

// WifiInfo is the drone's view of the Wi-Fi link.
type WifiInfo struct {
	Strength uint8
	Disturb  uint8
}

// LightInfo reports whether there is enough light for vision positioning.
type LightInfo struct {
	Good uint8
}

// LogMessage is the header the drone sends before its flight log.
// It must be acknowledged with the same ID.
type LogMessage struct {
	ID      uint16
	Message string
}

// FlightData is the status block the drone sends several times per second.
type FlightData struct {
	Height        int16 // decimetres
	NorthSpeed    int16
	EastSpeed     int16
	VerticalSpeed int16
	FlyTime       int16

	ImuState        bool
	PressureState   bool
	DownVisualState bool
	PowerState      bool
	BatteryState    bool
	GravityState    bool
	WindState       bool

	ImuCalibrationState uint8
	BatteryPercentage   uint8
	DroneBatteryLeft    int16
	DroneFlyTimeLeft    int16

	Flying          bool // em_sky
	OnGround        bool
	EmOpen          bool
	DroneHover      bool
	OutageRecording bool
	BatteryLow      bool
	BatteryLower    bool
	FactoryMode     bool

	FlyMode                  uint8
	ThrowFlyTimer            uint8
	CameraState              uint8
	ElectricalMachineryState uint8

	FrontIn         bool
	FrontOut        bool
	FrontLSC        bool
	TemperatureHigh bool
}

func (NoData) isPackageData()      {}
func (Unknown) isPackageData()     {}
func (Version) isPackageData()     {}
func (AltLimit) isPackageData()    {}
func (WifiInfo) isPackageData()    {}
func (LightInfo) isPackageData()   {}
func (*LogMessage) isPackageData() {}
func (*FlightData) isPackageData() {}

const (
	flightDataLen    = 24
	logHeaderSkip    = 9
	logHeaderMinSize = logHeaderSkip + 2
)

// decodePayload interprets a payload according to its command id.
func decodePayload(cmd CommandID, pl []byte) (PackageData, error) {
	switch cmd {
	case MsgFlightStatus:
		return payloadToFlightData(pl)
	case MsgWifiStrength:
		if len(pl) < 2 {
			return nil, shortPayload(cmd, len(pl), 2)
		}
		return WifiInfo{Strength: pl[0], Disturb: pl[1]}, nil
	case MsgLightStrength:
		if len(pl) < 1 {
			return nil, shortPayload(cmd, len(pl), 1)
		}
		return LightInfo{Good: pl[0]}, nil
	case MsgQueryVersion:
		if len(pl) < 1 {
			return nil, shortPayload(cmd, len(pl), 1)
		}
		return Version(strings.Trim(strings.ToValidUTF8(string(pl[1:]), ""), "\x00")), nil
	case MsgQueryHeightLimit:
		if len(pl) < 3 {
			return nil, shortPayload(cmd, len(pl), 3)
		}
		return AltLimit(binary.LittleEndian.Uint16(pl[1:3])), nil
	case MsgLogHeader:
		return payloadToLogMessage(pl)
	}
	return Unknown(pl), nil
}

func shortPayload(cmd CommandID, have, want int) error {
	return errors.Wrapf(ErrShortPayload, "%v: have %d bytes, want %d", cmd, have, want)
}

// int16LE combines two bytes without any sign handling beyond the int16 conversion,
// so patterns above 0x7fff wrap to negative values.
func int16LE(lo, hi byte) int16 {
	return int16(uint16(lo) | uint16(hi)<<8)
}

func bit(b byte, n uint) bool {
	return (b>>n)&1 == 1
}

func payloadToFlightData(pl []byte) (*FlightData, error) {
	if len(pl) < flightDataLen {
		return nil, shortPayload(MsgFlightStatus, len(pl), flightDataLen)
	}
	fd := &FlightData{}
	fd.Height = int16LE(pl[0], pl[1])
	fd.NorthSpeed = int16LE(pl[2], pl[3])
	fd.EastSpeed = int16LE(pl[4], pl[5])
	fd.VerticalSpeed = int16LE(pl[6], pl[7])
	fd.FlyTime = int16LE(pl[8], pl[9])

	fd.ImuState = bit(pl[10], 0)
	fd.PressureState = bit(pl[10], 1)
	fd.DownVisualState = bit(pl[10], 2)
	fd.PowerState = bit(pl[10], 3)
	fd.BatteryState = bit(pl[10], 4)
	fd.GravityState = bit(pl[10], 5)
	// what is bit 6?
	fd.WindState = bit(pl[10], 7)

	fd.ImuCalibrationState = pl[11]
	fd.BatteryPercentage = pl[12]
	fd.DroneBatteryLeft = int16LE(pl[13], pl[14])
	fd.DroneFlyTimeLeft = int16LE(pl[15], pl[16])

	fd.Flying = bit(pl[17], 0)
	fd.OnGround = bit(pl[17], 1)
	fd.EmOpen = bit(pl[17], 2)
	fd.DroneHover = bit(pl[17], 3)
	fd.OutageRecording = bit(pl[17], 4)
	fd.BatteryLow = bit(pl[17], 5)
	fd.BatteryLower = bit(pl[17], 6)
	fd.FactoryMode = bit(pl[17], 7)

	fd.FlyMode = pl[18]
	fd.ThrowFlyTimer = pl[19]
	fd.CameraState = pl[20]
	fd.ElectricalMachineryState = pl[21]

	fd.FrontIn = bit(pl[22], 0)
	fd.FrontOut = bit(pl[22], 1)
	fd.FrontLSC = bit(pl[22], 2)
	fd.TemperatureHigh = bit(pl[23], 0)

	return fd, nil
}

func payloadToLogMessage(pl []byte) (*LogMessage, error) {
	if len(pl) < logHeaderMinSize {
		return nil, shortPayload(MsgLogHeader, len(pl), logHeaderMinSize)
	}
	lm := &LogMessage{ID: binary.LittleEndian.Uint16(pl[logHeaderSkip:])}
	text := pl[logHeaderMinSize:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	lm.Message = strings.ToValidUTF8(string(text), "")
	return lm, nil
}
