// tello package flog.go - handle the flight logs from the drone

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

import "time"

// ackLogHeader confirms receipt of a log header, the drone resends it until it sees this.
func (tello *Tello) ackLogHeader(id uint16) error {
	cmd := NewZeroSeqCommand(MsgLogHeader, PtData1)
	cmd.WriteU16(id)
	tello.logger.Debug("acknowledging log header", "id", id)
	return tello.sendCmd("log header ack", cmd)
}

// SendDateTime sends the current date/time to the drone.
// The drone asks for this periodically and Poll replies automatically.
func (tello *Tello) SendDateTime() error {
	cmd := NewCommand(MsgSetDateTime, PtData1)
	addDateTime(cmd, tello.clock())
	return tello.sendCmd("date/time", cmd)
}

// addDateTime appends a zero byte then year, month, day, hour, minute,
// second and milliseconds, each a little-endian uint16.
func addDateTime(cmd *Command, now time.Time) {
	cmd.WriteU8(0)
	cmd.WriteU16(uint16(now.Year()))
	cmd.WriteU16(uint16(now.Month()))
	cmd.WriteU16(uint16(now.Day()))
	cmd.WriteU16(uint16(now.Hour()))
	cmd.WriteU16(uint16(now.Minute()))
	cmd.WriteU16(uint16(now.Second()))
	cmd.WriteU16(uint16(now.Nanosecond() / int(time.Millisecond)))
}
