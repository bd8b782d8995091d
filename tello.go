// tello.go

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
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// TelloPackageVersion is the current version of this package.
const TelloPackageVersion = "2.0.0"

const ctrlBufSize = 1460

// the drone asks for its metadata to be fetched once it has sent this many status messages
const metadataStatusCount = 3

var (
	// ErrAlreadyStreaming is returned by Stream when a consumer already exists.
	ErrAlreadyStreaming = errors.New("already streaming messages from this Tello")
	// ErrNotConnected is returned when the control socket has been closed.
	ErrNotConnected = errors.New("tello not connected")
)

// Tello holds the current state of a connection to a Tello drone.
// Nothing happens in the background: the caller must call Poll (or Stream)
// at least 20 times a second to keep the drone's stick heartbeat and
// protocol housekeeping going.
type Tello struct {
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time

	ctrlMu   sync.Mutex // serialises writes so sequence numbers reach the drone in order
	ctrlConn *net.UDPConn
	ctrlSeq  atomic.Uint32
	closed   atomic.Bool

	pollMu        sync.Mutex // this mutex protects the cadence fields and the read buffer
	ctrlBuf       []byte
	lastStick     time.Time
	statusCounter int

	videoMu   sync.Mutex // this mutex protects the video socket and settings
	videoConn *net.UDPConn
	videoBuf  []byte
	video     VideoSettings
	assembler frameAssembler

	streaming atomic.Bool

	RC       *RCState   // sent to the drone on every stick heartbeat
	Odometry *Odometry  // dead-reckoned from the movement commands issued
	Meta     *DroneMeta // latest telemetry of each kind
}

// Option configures a Tello in New.
type Option func(*Tello)

// WithLogger sets the logger for the engine, the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(tello *Tello) {
		tello.logger = logger.With(slog.String("drone", tello.cfg.DroneAddr))
	}
}

// WithClock replaces the wall clock used for the stick and key frame cadence.
func WithClock(clock func() time.Time) Option {
	return func(tello *Tello) {
		tello.clock = clock
	}
}

// New binds the local control socket and points it at the drone.
// No packets are sent until Connect is called.
func New(cfg Config, options ...Option) (*Tello, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tello := &Tello{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    time.Now,
		ctrlBuf:  make([]byte, ctrlBufSize),
		videoBuf: make([]byte, videoBufSize),
		video:    defaultVideoSettings(),
		RC:       &RCState{},
		Odometry: &Odometry{},
		Meta:     &DroneMeta{},
	}
	tello.assembler.vs = &tello.video
	for _, option := range options {
		option(tello)
	}
	tello.RC.clock = tello.clock

	droneAddr, err := net.ResolveUDPAddr("udp", cfg.DroneAddr)
	if err != nil {
		return nil, errors.Wrap(err, "resolving drone address")
	}
	localAddr, err := net.ResolveUDPAddr("udp", cfg.LocalAddr)
	if err != nil {
		return nil, errors.Wrap(err, "resolving local address")
	}
	tello.ctrlConn, err = net.DialUDP("udp", localAddr, droneAddr)
	if err != nil {
		return nil, errors.Wrap(err, "binding control socket")
	}
	return tello, nil
}

// Close releases the control and video sockets.
func (tello *Tello) Close() error {
	if !tello.closed.CompareAndSwap(false, true) {
		return nil
	}
	tello.videoMu.Lock()
	if tello.videoConn != nil {
		tello.videoConn.Close()
		tello.videoConn = nil
	}
	tello.videoMu.Unlock()
	return tello.ctrlConn.Close()
}

// Connect tells the drone which local port to send video to, binds that port
// and starts the video stream.  The drone replies with a ConnAck via Poll.
func (tello *Tello) Connect(videoPort uint16) error {
	// the initial connect request is different to the usual packets...
	msgBuff := []byte("conn_req:lh")
	msgBuff[9] = byte(videoPort)
	msgBuff[10] = byte(videoPort >> 8)

	tello.videoMu.Lock()
	tello.video.Port = videoPort
	tello.videoMu.Unlock()
	if err := tello.StartVideo(); err != nil {
		return err
	}
	if err := tello.listenVideo(videoPort); err != nil {
		return err
	}

	tello.logger.Info("requesting connection", slog.Int("videoPort", int(videoPort)))
	if err := tello.write(msgBuff); err != nil {
		return errors.Wrap(err, "tello: send connect request")
	}
	return nil
}

// Sequence returns the last sequence number issued.
func (tello *Tello) Sequence() uint16 {
	return uint16(tello.ctrlSeq.Load())
}

func (tello *Tello) write(b []byte) error {
	if tello.closed.Load() {
		return ErrNotConnected
	}
	_, err := tello.ctrlConn.Write(b)
	return err
}

// Send frames the command with the next sequence number, unless it is a
// zero-sequence command, and sends it.  There is no acknowledgement and no retry.
func (tello *Tello) Send(cmd *Command) error {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	var seq uint16
	if !cmd.ZeroSequence {
		seq = uint16(tello.ctrlSeq.Add(1))
	}
	return tello.write(cmd.Encode(seq))
}

func (tello *Tello) sendCmd(what string, cmd *Command) error {
	if err := tello.Send(cmd); err != nil {
		tello.logger.Warn("send failed", slog.String("command", what), slog.Any("error", err))
		return errors.Wrap(err, "tello: send "+what)
	}
	return nil
}

// Poll does one cycle of the protocol: it sends the stick heartbeat and key
// frame requests when they are due, then returns a video frame if one is
// complete, otherwise the next message from the control socket.
// Log headers, date/time requests and the metadata requests the drone
// expects after connecting are answered here before the message is returned.
// It returns nil when there was nothing (decodable) to read.
func (tello *Tello) Poll() Message {
	tello.pollMu.Lock()
	defer tello.pollMu.Unlock()

	now := tello.clock()
	if now.Sub(tello.lastStick) >= tello.cfg.StickInterval {
		tello.SendStick(tello.RC.StickParameter())
		tello.lastStick = now
	}

	tello.videoMu.Lock()
	enabled, lastPoll, bound := tello.video.Enabled, tello.video.LastKeyFramePoll, tello.videoConn != nil
	tello.videoMu.Unlock()
	if enabled {
		if now.Sub(lastPoll) >= tello.cfg.KeyFrameInterval {
			tello.PollKeyFrame()
		}
		if bound {
			if frame := tello.receiveVideoFrame(); frame != nil {
				return frame
			}
		}
	}

	return tello.receiveControl()
}

func (tello *Tello) receiveControl() Message {
	if tello.closed.Load() {
		return nil
	}
	tello.ctrlConn.SetReadDeadline(time.Now().Add(tello.cfg.ReadTimeout))
	n, err := tello.ctrlConn.Read(tello.ctrlBuf)
	if err != nil {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			tello.logger.Debug("control read failed", slog.Any("error", err))
		}
		return nil
	}
	msg, err := parseMessage(tello.ctrlBuf[:n], tello.cfg.StrictChecksums)
	if err != nil {
		tello.logger.Debug("discarding datagram", slog.Int("len", n), slog.Any("error", err))
		return nil
	}
	tello.handleMessage(msg)
	return msg
}

// handleMessage performs the replies the drone requires before msg is handed to the caller.
func (tello *Tello) handleMessage(msg Message) {
	switch m := msg.(type) {
	case ConnAck:
		tello.logger.Info("connected", slog.String("ack", m.Text))
		tello.statusCounter = 0
	case *Package:
		switch m.Cmd {
		case MsgLogHeader:
			tello.Meta.Update(m.Data)
			if lm, ok := m.Data.(*LogMessage); ok {
				tello.ackLogHeader(lm.ID)
			}
		case MsgSetDateTime:
			tello.SendDateTime()
		case MsgFlightStatus:
			tello.Meta.Update(m.Data)
			tello.statusCounter++
			if tello.statusCounter == metadataStatusCount {
				tello.queryMetadata()
			}
		default:
			tello.Meta.Update(m.Data)
		}
	case UnknownCommand:
		tello.logger.Debug("drone did not understand command", slog.String("command", m.Cmd.String()))
	}
}

// queryMetadata asks for the settings the official app fetches after connecting.
func (tello *Tello) queryMetadata() {
	tello.logger.Info("requesting drone metadata")
	tello.GetVersion()
	tello.SetVideoBitrate(Vbr3M)
	tello.GetAltLimit()
	tello.GetBatteryThreshold()
	tello.GetAttAngle()
	tello.GetRegion()
	tello.SetExposure(2)
}

// Stream starts a Goroutine which calls Poll every period and sends the
// messages to the returned channel until ctx is done, when the channel is closed.
// Only one stream may exist per Tello.
// This streamer does not block on the channel, so unconsumed messages are lost.
func (tello *Tello) Stream(ctx context.Context, period time.Duration) (<-chan Message, error) {
	if !tello.streaming.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStreaming
	}
	msgChan := make(chan Message, 32)
	go func() {
		defer close(msgChan)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			msg := tello.Poll()
			if msg == nil {
				continue
			}
			select {
			case msgChan <- msg:
			default:
				tello.logger.Debug("stream consumer too slow, dropping message")
			}
		}
	}()
	return msgChan, nil
}
