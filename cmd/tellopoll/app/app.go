// app.go

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

package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SMerrony/tello/v2"
	"github.com/SMerrony/tello/v2/relay"
	"github.com/SMerrony/tello/v2/videosink"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const landTimeout = 3 * time.Second

// Options are the per-run choices taken from the command line.
type Options struct {
	TakeOff bool
}

// Fly connects to the drone and keeps the link alive until ctx is done.
func Fly(ctx context.Context, config *Config, opts Options, logger *slog.Logger) error {
	drone, err := tello.New(config.Drone, tello.WithLogger(logger))
	if err != nil {
		return err
	}
	defer drone.Close()

	var sink *videosink.Forwarder
	if config.Video.Enabled {
		sink, err = videosink.New(config.Video.Dest,
			videosink.WithLogger(logger),
			videosink.WithQueueSize(config.Video.QueueSize),
			videosink.WithFrameRate(config.Video.FrameRate))
		if err != nil {
			return err
		}
		defer sink.Close()
		go func() {
			if err := sink.Run(ctx); err != nil {
				logger.Error("video forwarder stopped", slog.Any("error", err))
			}
		}()
	}

	if config.Relay.Enabled {
		r := relay.New(drone.Meta, relay.WithLogger(logger), relay.WithInterval(config.Relay.Interval))
		go func() {
			if err := r.Serve(ctx, config.Relay.Addr); err != nil {
				logger.Error("relay stopped", slog.Any("error", err))
			}
		}()
	}

	if err = drone.Connect(config.Drone.VideoPort); err != nil {
		return err
	}
	logger.Info("connect request sent", slog.String("package", tello.TelloPackageVersion))

	msgs, err := drone.Stream(ctx, config.PollPeriod())
	if err != nil {
		return err
	}

	status := time.NewTicker(config.Settings.StatusEvery)
	defer status.Stop()

	airborne := false
	var frames uint64
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return land(drone, airborne, logger)
			}
			switch m := msg.(type) {
			case tello.ConnAck:
				logger.Info("drone accepted connection")
			case *tello.Frame:
				frames++
				if sink != nil {
					sink.Push(m.ID, m.Data)
				}
			case *tello.Package:
				if opts.TakeOff && !airborne && m.Cmd == tello.MsgFlightStatus {
					if err = drone.TakeOff(); err != nil {
						return err
					}
					airborne = true
					logger.Info("taking off")
				}
			}
		case <-status.C:
			logStatus(drone, frames, sink, logger)
		}
	}
}

func land(drone *tello.Tello, airborne bool, logger *slog.Logger) error {
	if !airborne {
		return nil
	}
	logger.Info("landing")
	if err := drone.Land(); err != nil {
		return err
	}
	// keep polling so the stick heartbeat continues while the drone descends
	deadline := time.Now().Add(landTimeout)
	for time.Now().Before(deadline) {
		drone.Poll()
	}
	return nil
}

func logStatus(drone *tello.Tello, frames uint64, sink *videosink.Forwarder, logger *slog.Logger) {
	attrs := []any{slog.String("frames", humanize.Comma(int64(frames)))}
	if fd, ok := drone.Meta.FlightData(); ok {
		attrs = append(attrs,
			slog.Int("battery", int(fd.BatteryPercentage)),
			slog.Int("height_dm", int(fd.Height)),
			slog.Bool("flying", fd.Flying))
	}
	if w, ok := drone.Meta.WifiInfo(); ok {
		attrs = append(attrs, slog.Int("wifi", int(w.Strength)))
	}
	if v, ok := drone.Meta.Version(); ok {
		attrs = append(attrs, slog.String("firmware", string(v)))
	}
	if sink != nil {
		attrs = append(attrs, slog.String("video", sink.Stats().String()))
	}
	x, y, z, _ := drone.Odometry.Position()
	attrs = append(attrs, slog.String("odometry", fmt.Sprintf("%.0f,%.0f,%.0f cm", x, y, z)))
	logger.Info("status", attrs...)
}

// Decode parses hex encoded datagrams and describes each one.
func Decode(w io.Writer, datagrams []string) error {
	for _, d := range datagrams {
		b, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(d))
		if err != nil {
			return errors.Wrapf(err, "decoding %q", d)
		}
		fmt.Fprintf(w, "%s\n", Describe(b))
	}
	return nil
}

// Describe gives a one line account of a datagram from the drone.
func Describe(b []byte) string {
	msg, err := tello.ParseMessage(b)
	if err != nil {
		return fmt.Sprintf("% x: %v", b, err)
	}
	crc := "ok"
	if !tello.ValidChecksum(b) {
		crc = "bad"
	}
	switch m := msg.(type) {
	case tello.ConnAck:
		return fmt.Sprintf("connection ack %q", m.Text)
	case tello.UnknownCommand:
		return fmt.Sprintf("drone rejected command %v", m.Cmd)
	case *tello.Package:
		return fmt.Sprintf("%v seq %d, %s payload, crc %s: %+v",
			m.Cmd, m.Sequence, humanize.Bytes(uint64(m.Size)), crc, m.Data)
	}
	return fmt.Sprintf("%T", msg)
}
