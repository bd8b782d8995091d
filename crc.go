// crc.go

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
	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

// The Tello firmware uses reflected table-driven CRCs with non-standard seeds.
// The sigurn packages take the seed in unreflected form, hence 0xee (0x77
// reflected) and 0x496c (0x3692 reflected).
var (
	crc8Table = crc8.MakeTable(crc8.Params{
		Poly:   0x31,
		Init:   0xee,
		RefIn:  true,
		RefOut: true,
		XorOut: 0x00,
		Check:  0x00,
		Name:   "CRC-8/TELLO",
	})
	crc16Table = crc16.MakeTable(crc16.Params{
		Poly:   0x1021,
		Init:   0x496c,
		RefIn:  true,
		RefOut: true,
		XorOut: 0x0000,
		Check:  0x0000,
		Name:   "CRC-16/TELLO",
	})
)

func calculateCRC8(b []byte) byte {
	return crc8.Checksum(b, crc8Table)
}

func calculateCRC16(b []byte) uint16 {
	return crc16.Checksum(b, crc16Table)
}

// ValidChecksum reports whether a complete binary frame carries a correct
// header CRC8 and trailing CRC16.
func ValidChecksum(frame []byte) bool {
	if len(frame) < minPktSize || frame[0] != msgHdr {
		return false
	}
	size := int(uint16(frame[1])|uint16(frame[2])<<8) >> 3
	if size < minPktSize || size > len(frame) {
		return false
	}
	if calculateCRC8(frame[0:3]) != frame[3] {
		return false
	}
	crc := uint16(frame[size-2]) | uint16(frame[size-1])<<8
	return calculateCRC16(frame[0:size-2]) == crc
}
