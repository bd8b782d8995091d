// messages.go

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
	"fmt"

	"github.com/pkg/errors"
)

const msgHdr = 0xcc // 204

const (
	minPktSize = 11 // smallest possible raw packet
	hdrSize    = 9
)

var (
	// ErrInvalidPackage is returned for a datagram which matches none of the known framings.
	ErrInvalidPackage = errors.New("invalid package")
	// ErrShortPacket is returned when a frame is shorter than its header or its declared size.
	ErrShortPacket = errors.New("packet too short")
	// ErrShortPayload is returned when a known telemetry payload lacks the bytes its layout needs.
	ErrShortPayload = errors.New("payload too short")
	// ErrBadChecksum is returned in strict mode for frames whose CRCs do not match.
	ErrBadChecksum = errors.New("bad checksum")
)

// PacketType is carried verbatim in the 5th byte of every frame.
// The values combine a 3-bit type with the 'to drone' flag (0x40).
type PacketType byte

// Tello packet types
const (
	PtGet   PacketType = 0x48
	PtData1 PacketType = 0x50
	PtData2 PacketType = 0x60
	PtSet   PacketType = 0x68
	PtFlip  PacketType = 0x70
)

// CommandID identifies the meaning of a binary message.
// Ids the package does not know decode as MsgUndefined.
type CommandID uint16

// Tello message IDs
const (
	MsgUndefined           CommandID = 0x0000
	MsgQuerySSID           CommandID = 0x0011 // 17
	MsgSetSSID             CommandID = 0x0012 // 18
	MsgQuerySSIDPass       CommandID = 0x0013 // 19
	MsgSetSSIDPass         CommandID = 0x0014 // 20
	MsgQueryWifiRegion     CommandID = 0x0015 // 21
	MsgSetWifiRegion       CommandID = 0x0016 // 22
	MsgWifiStrength        CommandID = 0x001a // 26
	MsgSetVideoBitrate     CommandID = 0x0020 // 32
	MsgSetDynAdjRate       CommandID = 0x0021 // 33
	MsgEisSetting          CommandID = 0x0024 // 36
	MsgQueryVideoSPSPPS    CommandID = 0x0025 // 37
	MsgQueryVideoBitrate   CommandID = 0x0028 // 40
	MsgDoTakePic           CommandID = 0x0030 // 48
	MsgSwitchPicVideo      CommandID = 0x0031 // 49
	MsgDoStartRec          CommandID = 0x0032 // 50
	MsgExposureVals        CommandID = 0x0034 // 52
	MsgLightStrength       CommandID = 0x0035 // 53
	MsgQueryJPEGQuality    CommandID = 0x0037 // 55
	MsgError1              CommandID = 0x0043 // 67
	MsgError2              CommandID = 0x0044 // 68
	MsgQueryVersion        CommandID = 0x0045 // 69
	MsgSetDateTime         CommandID = 0x0046 // 70
	MsgQueryActivationTime CommandID = 0x0047 // 71
	MsgQueryLoaderVersion  CommandID = 0x0049 // 73
	MsgSetStick            CommandID = 0x0050 // 80
	MsgDoTakeoff           CommandID = 0x0054 // 84
	MsgDoLand              CommandID = 0x0055 // 85
	MsgFlightStatus        CommandID = 0x0056 // 86
	MsgSetHeightLimit      CommandID = 0x0058 // 88
	MsgDoFlip              CommandID = 0x005c // 92
	MsgDoThrowTakeoff      CommandID = 0x005d // 93
	MsgDoPalmLand          CommandID = 0x005e // 94
	MsgFileSize            CommandID = 0x0062 // 98
	MsgFileData            CommandID = 0x0063 // 99
	MsgFileDone            CommandID = 0x0064 // 100
	MsgDoSmartVideo        CommandID = 0x0080 // 128
	MsgSmartVideoStatus    CommandID = 0x0081 // 129
	MsgLogHeader           CommandID = 0x1050 // 4176
	MsgLogData             CommandID = 0x1051 // 4177
	MsgLogConfig           CommandID = 0x1052 // 4178
	MsgDoBounce            CommandID = 0x1053 // 4179
	MsgDoCalibration       CommandID = 0x1054 // 4180
	MsgSetLowBattThresh    CommandID = 0x1055 // 4181
	MsgQueryHeightLimit    CommandID = 0x1056 // 4182
	MsgQueryLowBattThresh  CommandID = 0x1057 // 4183
	MsgSetAttitude         CommandID = 0x1058 // 4184
	MsgQueryAttitude       CommandID = 0x1059 // 4185
)

var commandNames = map[CommandID]string{
	MsgQuerySSID:           "QuerySSID",
	MsgSetSSID:             "SetSSID",
	MsgQuerySSIDPass:       "QuerySSIDPass",
	MsgSetSSIDPass:         "SetSSIDPass",
	MsgQueryWifiRegion:     "QueryWifiRegion",
	MsgSetWifiRegion:       "SetWifiRegion",
	MsgWifiStrength:        "WifiStrength",
	MsgSetVideoBitrate:     "SetVideoBitrate",
	MsgSetDynAdjRate:       "SetDynAdjRate",
	MsgEisSetting:          "EisSetting",
	MsgQueryVideoSPSPPS:    "QueryVideoSPSPPS",
	MsgQueryVideoBitrate:   "QueryVideoBitrate",
	MsgDoTakePic:           "DoTakePic",
	MsgSwitchPicVideo:      "SwitchPicVideo",
	MsgDoStartRec:          "DoStartRec",
	MsgExposureVals:        "ExposureVals",
	MsgLightStrength:       "LightStrength",
	MsgQueryJPEGQuality:    "QueryJPEGQuality",
	MsgError1:              "Error1",
	MsgError2:              "Error2",
	MsgQueryVersion:        "QueryVersion",
	MsgSetDateTime:         "SetDateTime",
	MsgQueryActivationTime: "QueryActivationTime",
	MsgQueryLoaderVersion:  "QueryLoaderVersion",
	MsgSetStick:            "SetStick",
	MsgDoTakeoff:           "DoTakeoff",
	MsgDoLand:              "DoLand",
	MsgFlightStatus:        "FlightStatus",
	MsgSetHeightLimit:      "SetHeightLimit",
	MsgDoFlip:              "DoFlip",
	MsgDoThrowTakeoff:      "DoThrowTakeoff",
	MsgDoPalmLand:          "DoPalmLand",
	MsgFileSize:            "FileSize",
	MsgFileData:            "FileData",
	MsgFileDone:            "FileDone",
	MsgDoSmartVideo:        "DoSmartVideo",
	MsgSmartVideoStatus:    "SmartVideoStatus",
	MsgLogHeader:           "LogHeader",
	MsgLogData:             "LogData",
	MsgLogConfig:           "LogConfig",
	MsgDoBounce:            "DoBounce",
	MsgDoCalibration:       "DoCalibration",
	MsgSetLowBattThresh:    "SetLowBattThresh",
	MsgQueryHeightLimit:    "QueryHeightLimit",
	MsgQueryLowBattThresh:  "QueryLowBattThresh",
	MsgSetAttitude:         "SetAttitude",
	MsgQueryAttitude:       "QueryAttitude",
}

// CommandIDFromUint16 maps a raw message id onto a known CommandID, or MsgUndefined.
func CommandIDFromUint16(v uint16) CommandID {
	if _, ok := commandNames[CommandID(v)]; ok {
		return CommandID(v)
	}
	return MsgUndefined
}

func (c CommandID) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "Undefined"
}

// FlipType represents a flip direction.
type FlipType int

// Flip types...
const (
	FlipForward FlipType = iota
	FlipLeft
	FlipBackward
	FlipRight
	FlipForwardLeft
	FlipBackwardLeft
	FlipBackwardRight
	FlipForwardRight
)

// VBR is a Video Bit Rate, the int value is meaningless.
type VBR byte

// VBR settings...
const (
	VbrAuto VBR = iota // let the Tello choose the best for the current connection
	Vbr1M              // Set the VBR to 1Mbps
	Vbr1M5             // Set the VBR to 1.5Mbps
	Vbr2M              // Set the VBR to 2Mbps
	Vbr3M              // Set the VBR to 3Mbps
	Vbr4M              // Set the VBR to 4mbps
)

// VideoMode selects the camera's picture format.
type VideoMode byte

// Video modes...
const (
	VideoModeNormal VideoMode = 0 // 960x720, 4:3
	VideoModeWide   VideoMode = 1 // 1280x720, 16:9 cropped
)

// Command is an outbound message before it is framed.
// The payload is built up with the Write* methods.
type Command struct {
	ID           CommandID
	Type         PacketType
	ZeroSequence bool // always send sequence 0 rather than the next counter value
	payload      []byte
}

// NewCommand returns a command which will be sent with the next sequence number.
func NewCommand(id CommandID, pt PacketType) *Command {
	return &Command{ID: id, Type: pt}
}

// NewZeroSeqCommand returns a command whose sequence field is always 0.
func NewZeroSeqCommand(id CommandID, pt PacketType) *Command {
	return &Command{ID: id, Type: pt, ZeroSequence: true}
}

// Write appends raw bytes to the payload.
func (c *Command) Write(b []byte) {
	c.payload = append(c.payload, b...)
}

// WriteU8 appends a single byte to the payload.
func (c *Command) WriteU8(v uint8) {
	c.payload = append(c.payload, v)
}

// WriteU16 appends a little-endian uint16 to the payload.
func (c *Command) WriteU16(v uint16) {
	c.payload = binary.LittleEndian.AppendUint16(c.payload, v)
}

// WriteU64 appends a little-endian uint64 to the payload.
func (c *Command) WriteU64(v uint64) {
	c.payload = binary.LittleEndian.AppendUint64(c.payload, v)
}

// Payload returns the bytes written so far.
func (c *Command) Payload() []byte {
	return c.payload
}

// Encode packs the command into raw frame format and calculates the CRCs.
// seq is ignored for zero-sequence commands.
func (c *Command) Encode(seq uint16) (buff []byte) {
	if c.ZeroSequence {
		seq = 0
	}
	payloadSize := len(c.payload)
	packetSize := minPktSize + payloadSize
	buff = make([]byte, packetSize)

	buff[0] = msgHdr
	buff[1] = byte(packetSize << 3)
	buff[2] = byte(packetSize >> 5)
	// the header CRC only ever covers the marker and the size
	buff[3] = calculateCRC8(buff[0:3])
	buff[4] = byte(c.Type)
	buff[5] = byte(c.ID)
	buff[6] = byte(c.ID >> 8)
	buff[7] = byte(seq)
	buff[8] = byte(seq >> 8)
	copy(buff[hdrSize:], c.payload)

	crc16 := calculateCRC16(buff[0 : hdrSize+payloadSize])
	buff[hdrSize+payloadSize] = byte(crc16)
	buff[hdrSize+payloadSize+1] = byte(crc16 >> 8)

	return buff
}

// Message is anything which may arrive from the drone: a *Package, a ConnAck,
// an UnknownCommand or a reassembled video *Frame.
type Message interface {
	isMessage()
}

// Package is a binary data message with its payload decoded where the id is known.
type Package struct {
	Cmd      CommandID
	Size     uint16
	Sequence uint16
	Data     PackageData
}

// ConnAck is the plain-text reply to a connection request.
type ConnAck struct {
	Text string
}

// UnknownCommand is the plain-text reply to a command the drone did not understand.
type UnknownCommand struct {
	Cmd CommandID
}

// Frame is a complete reassembled H.264 access unit from the video channel.
type Frame struct {
	ID   uint32
	Data []byte
}

func (*Package) isMessage()       {}
func (ConnAck) isMessage()        {}
func (UnknownCommand) isMessage() {}
func (*Frame) isMessage()         {}

var (
	connAckPrefix    = []byte("conn_ack:")
	unknownCmdPrefix = []byte("unknown command:")
)

// the id follows the prefix after a single separator byte
const unknownCmdIDOffset = 17

// ParseMessage classifies and decodes one datagram from the control channel.
// The trailing CRC16 is stripped but not verified.
func ParseMessage(buff []byte) (Message, error) {
	return parseMessage(buff, false)
}

func parseMessage(buff []byte, strict bool) (Message, error) {
	if len(buff) == 0 {
		return nil, errors.Wrap(ErrInvalidPackage, "empty datagram")
	}
	if buff[0] != msgHdr {
		return parseResponse(buff)
	}
	if len(buff) < hdrSize {
		return nil, errors.Wrapf(ErrShortPacket, "%d byte header", len(buff))
	}
	if strict && !ValidChecksum(buff) {
		return nil, ErrBadChecksum
	}

	size13 := (uint16(buff[1]) | uint16(buff[2])<<8) >> 3
	if size13 < minPktSize {
		return nil, errors.Wrapf(ErrInvalidPackage, "declared size %d", size13)
	}
	pkt := &Package{
		Cmd:      CommandIDFromUint16(uint16(buff[5]) | uint16(buff[6])<<8),
		Size:     size13 - minPktSize,
		Sequence: uint16(buff[7]) | uint16(buff[8])<<8,
	}
	if pkt.Size == 0 {
		pkt.Data = NoData{}
		return pkt, nil
	}
	end := hdrSize + int(pkt.Size)
	if end > len(buff) {
		return nil, errors.Wrapf(ErrShortPacket, "%v declares %d payload bytes, have %d",
			pkt.Cmd, pkt.Size, len(buff)-hdrSize)
	}
	payload := make([]byte, pkt.Size)
	copy(payload, buff[hdrSize:end])

	data, err := decodePayload(pkt.Cmd, payload)
	if err != nil {
		return nil, err
	}
	pkt.Data = data
	return pkt, nil
}

func parseResponse(buff []byte) (Message, error) {
	switch {
	case bytes.HasPrefix(buff, connAckPrefix):
		return ConnAck{Text: string(buff)}, nil
	case bytes.HasPrefix(buff, unknownCmdPrefix):
		if len(buff) < unknownCmdIDOffset+2 {
			return nil, errors.Wrap(ErrShortPacket, "unknown command reply")
		}
		id := binary.LittleEndian.Uint16(buff[unknownCmdIDOffset:])
		return UnknownCommand{Cmd: CommandIDFromUint16(id)}, nil
	}
	n := len(buff)
	if n > 5 {
		n = 5
	}
	return nil, errors.Wrap(ErrInvalidPackage, fmt.Sprintf("% x", buff[:n]))
}
