// forwarder.go

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

// Package videosink forwards reassembled Tello video frames to a local UDP
// port as RTP, so that ffplay, gstreamer or a WebRTC bridge can show them.
package videosink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/dustin/go-humanize"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pkg/errors"
)

const (
	// PayloadType is the dynamic RTP payload type used for H.264.
	PayloadType = 96
	// ClockRate is the RTP clock for video.
	ClockRate = 90000
	// MTU is the largest RTP packet written.
	MTU = 1200

	defaultQueueSize = 64
	defaultFrameRate = 30
	pollInterval     = 100 * time.Millisecond
)

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("forwarder already running")

type frame struct {
	id   uint32
	data []byte
}

// Stats counts the frames handled by a Forwarder.
type Stats struct {
	Frames  uint64
	Packets uint64
	Bytes   uint64
	Dropped uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("%s frames (%s) in %s packets, %s dropped",
		humanize.Comma(int64(s.Frames)), humanize.Bytes(s.Bytes),
		humanize.Comma(int64(s.Packets)), humanize.Comma(int64(s.Dropped)))
}

// Forwarder queues frames from the poll loop and writes them out as RTP from its own Goroutine.
type Forwarder struct {
	conn       net.Conn
	frames     *queue.RingBuffer
	packetizer rtp.Packetizer
	frameTicks uint32
	queueSize  uint64
	frameRate  uint32
	logger     *slog.Logger

	isRunning atomic.Bool
	lastID    atomic.Uint32
	frameCnt  atomic.Uint64
	packetCnt atomic.Uint64
	byteCnt   atomic.Uint64
	dropCnt   atomic.Uint64
}

// WithLogger sets the logger for the forwarder
func WithLogger(logger *slog.Logger) func(f *Forwarder) {
	return func(f *Forwarder) {
		f.logger = logger.With(slog.String("sink", f.conn.RemoteAddr().String()))
	}
}

// WithQueueSize sets how many frames may wait to be sent, it is rounded up to a power of two.
func WithQueueSize(size uint64) func(f *Forwarder) {
	return func(f *Forwarder) {
		f.queueSize = size
	}
}

// WithFrameRate sets the nominal frame rate used for RTP timestamps.
func WithFrameRate(fps uint32) func(f *Forwarder) {
	return func(f *Forwarder) {
		f.frameRate = fps
	}
}

// New creates a Forwarder sending to dest, a host:port.
func New(dest string, options ...func(f *Forwarder)) (*Forwarder, error) {
	conn, err := net.Dial("udp", dest)
	if err != nil {
		return nil, errors.Wrap(err, "dialling video sink")
	}
	f := &Forwarder{
		conn:      conn,
		queueSize: defaultQueueSize,
		frameRate: defaultFrameRate,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}
	for _, option := range options {
		option(f)
	}
	if f.frameRate == 0 {
		f.frameRate = defaultFrameRate
	}
	f.frames = queue.NewRingBuffer(f.queueSize)
	f.frameTicks = ClockRate / f.frameRate
	f.packetizer = rtp.NewPacketizer(MTU, PayloadType, rand32(), &codecs.H264Payloader{},
		rtp.NewRandomSequencer(), ClockRate)
	return f, nil
}

func rand32() uint32 {
	return uint32(time.Now().UnixNano())
}

// Push offers a frame without blocking, it returns false if the frame was dropped.
func (f *Forwarder) Push(id uint32, data []byte) bool {
	ok, err := f.frames.Offer(frame{id: id, data: data})
	if err != nil || !ok {
		f.dropCnt.Add(1)
		return false
	}
	return true
}

// Run sends queued frames until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	if !f.isRunning.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer f.isRunning.Store(false)

	for {
		item, err := f.frames.Poll(pollInterval)
		switch {
		case errors.Is(err, queue.ErrTimeout):
			if ctx.Err() != nil {
				return nil
			}
			continue
		case err != nil:
			return errors.Wrap(err, "reading frame queue")
		}
		fr := item.(frame)
		if err = f.send(fr); err != nil {
			f.logger.Warn("failed to forward frame", slog.Uint64("frame", uint64(fr.id)), slog.Any("error", err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (f *Forwarder) send(fr frame) error {
	// a gap in frame ids is a gap in time
	ticks := f.frameTicks
	if last := f.lastID.Swap(fr.id); last != 0 && fr.id > last {
		ticks *= fr.id - last
	}
	for _, pkt := range f.packetizer.Packetize(fr.data, ticks) {
		b, err := pkt.Marshal()
		if err != nil {
			return err
		}
		if _, err = f.conn.Write(b); err != nil {
			return err
		}
		f.packetCnt.Add(1)
	}
	f.frameCnt.Add(1)
	f.byteCnt.Add(uint64(len(fr.data)))
	return nil
}

// Stats returns the counts so far.
func (f *Forwarder) Stats() Stats {
	return Stats{
		Frames:  f.frameCnt.Load(),
		Packets: f.packetCnt.Load(),
		Bytes:   f.byteCnt.Load(),
		Dropped: f.dropCnt.Load(),
	}
}

// Close stops the queue and releases the socket.
func (f *Forwarder) Close() error {
	f.frames.Dispose()
	return f.conn.Close()
}
