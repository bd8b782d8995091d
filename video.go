// video.go

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
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	videoBufSize     = 2048
	videoHdrSize     = 2   // frame id, sub-packet sequence
	lastSubPacket    = 120 // a frame is complete once this sequence is seen
	overflowWindowID = 100 // ids below this which go backwards have wrapped
)

// ErrVideoDesync is returned when a sub-packet of a different frame interrupts the one being built.
var ErrVideoDesync = errors.New("video frame desync")

// VideoSettings is the engine's view of the video channel.
type VideoSettings struct {
	Port             uint16
	Enabled          bool
	Mode             VideoMode
	Level            uint8
	EncodingRate     VBR
	LastKeyFramePoll time.Time
	LastFrameID      uint8  // wire id of the latest first sub-packet seen
	FrameOverflow    uint32 // times the 8-bit wire id has wrapped
}

func defaultVideoSettings() VideoSettings {
	return VideoSettings{Mode: VideoModeNormal, Level: 1, EncodingRate: Vbr3M}
}

// frameAssembler rebuilds one H.264 frame from the sub-packets on the video socket.
// It keeps the frame id bookkeeping in the VideoSettings it is given.
type frameAssembler struct {
	vs       *VideoSettings
	activeID uint8
	buf      []byte
}

// begin starts a new frame from its first datagram.
// It returns false if the datagram is not the start of a frame.
func (fa *frameAssembler) begin(d []byte) bool {
	if len(d) < videoHdrSize {
		return false
	}
	id, seq := d[0], d[1]
	if id < overflowWindowID && id < fa.vs.LastFrameID {
		fa.vs.FrameOverflow++
	}
	fa.vs.LastFrameID = id
	if seq != 0 {
		// joined mid-frame
		return false
	}
	fa.activeID = id
	fa.buf = append(fa.buf[:0], d[videoHdrSize:]...)
	return true
}

// add appends a following datagram, done is true when the frame is complete.
func (fa *frameAssembler) add(d []byte) (done bool, err error) {
	if len(d) < videoHdrSize || d[0] != fa.activeID {
		return false, ErrVideoDesync
	}
	fa.buf = append(fa.buf, d[videoHdrSize:]...)
	return d[1] >= lastSubPacket, nil
}

// frame returns a copy of the completed frame, numbered so that ids keep rising across wraps.
func (fa *frameAssembler) frame() *Frame {
	data := make([]byte, len(fa.buf))
	copy(data, fa.buf)
	return &Frame{
		ID:   uint32(fa.activeID) + 255*fa.vs.FrameOverflow,
		Data: data,
	}
}

// listenVideo binds the local video socket, replacing any previous one.
func (tello *Tello) listenVideo(port uint16) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(tello.cfg.VideoHost, strconv.Itoa(int(port))))
	if err != nil {
		return errors.Wrap(err, "resolving video address")
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errors.Wrap(err, "binding video socket")
	}
	tello.videoMu.Lock()
	if tello.videoConn != nil {
		tello.videoConn.Close()
	}
	tello.videoConn = conn
	tello.videoMu.Unlock()
	return nil
}

// receiveVideoFrame tries to read one complete frame from the video socket.
// Once the first sub-packet of a frame has arrived it waits, for at most
// frameTimeout, for the rest.
func (tello *Tello) receiveVideoFrame() *Frame {
	tello.videoMu.Lock()
	defer tello.videoMu.Unlock()
	if tello.videoConn == nil {
		return nil
	}

	tello.videoConn.SetReadDeadline(time.Now().Add(tello.cfg.ReadTimeout))
	n, err := tello.videoConn.Read(tello.videoBuf)
	if err != nil {
		return nil
	}
	if !tello.assembler.begin(tello.videoBuf[:n]) {
		return nil
	}

	tello.videoConn.SetReadDeadline(time.Now().Add(tello.cfg.FrameTimeout))
	for {
		n, err = tello.videoConn.Read(tello.videoBuf)
		if err != nil {
			tello.logger.Debug("dropping partial video frame", "frame", tello.assembler.activeID, "error", err)
			return nil
		}
		done, err := tello.assembler.add(tello.videoBuf[:n])
		if err != nil {
			tello.logger.Debug("dropping partial video frame", "frame", tello.assembler.activeID, "error", err)
			return nil
		}
		if done {
			return tello.assembler.frame()
		}
	}
}

// VideoSettings returns a copy of the current video settings.
func (tello *Tello) VideoSettings() VideoSettings {
	tello.videoMu.Lock()
	defer tello.videoMu.Unlock()
	return tello.video
}

// StartVideo asks the Tello to start sending video, and requests the SPS/PPS.
// While video is enabled Poll repeats the request every keyFrameInterval.
func (tello *Tello) StartVideo() error {
	tello.videoMu.Lock()
	tello.video.Enabled = true
	tello.videoMu.Unlock()
	return tello.PollKeyFrame()
}

// PollKeyFrame requests a fresh I-frame.
func (tello *Tello) PollKeyFrame() error {
	tello.videoMu.Lock()
	tello.video.LastKeyFramePoll = tello.clock()
	tello.videoMu.Unlock()
	return tello.sendCmd("start video", NewZeroSeqCommand(MsgQueryVideoSPSPPS, PtData2))
}

// SetVideoMode selects 4:3 (wider field of view) or 16:9 (crisper) video.
func (tello *Tello) SetVideoMode(mode VideoMode) error {
	tello.videoMu.Lock()
	tello.video.Mode = mode
	tello.videoMu.Unlock()
	cmd := NewZeroSeqCommand(MsgQueryVideoSPSPPS, PtSet)
	cmd.WriteU8(byte(mode))
	return tello.sendCmd("set video mode", cmd)
}

// SetVideoNormal requests video format to be (native) ~4:3 ratio.
func (tello *Tello) SetVideoNormal() error { return tello.SetVideoMode(VideoModeNormal) }

// SetVideoWide requests video format to be (cropped) 16:9 ratio.
func (tello *Tello) SetVideoWide() error { return tello.SetVideoMode(VideoModeWide) }

// SetExposure sets the camera exposure level, 0, 1 or 2.
func (tello *Tello) SetExposure(level uint8) error {
	tello.videoMu.Lock()
	tello.video.Level = level
	tello.videoMu.Unlock()
	cmd := NewCommand(MsgExposureVals, PtGet)
	cmd.WriteU8(level)
	return tello.sendCmd("set exposure", cmd)
}

// GetVideoBitrate requests the current video Mbps from the Tello.
func (tello *Tello) GetVideoBitrate() error {
	return tello.sendCmd("get video bitrate", NewCommand(MsgQueryVideoBitrate, PtGet))
}

// SetVideoBitrate ask the Tello to use the specified bitrate (or auto) for video encoding.
func (tello *Tello) SetVideoBitrate(vbr VBR) error {
	tello.videoMu.Lock()
	tello.video.EncodingRate = vbr
	tello.videoMu.Unlock()
	cmd := NewCommand(MsgSetVideoBitrate, PtSet)
	cmd.WriteU8(byte(vbr))
	return tello.sendCmd("set video bitrate", cmd)
}
