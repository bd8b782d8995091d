// config.go

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
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultTelloAddr      = "192.168.10.1:8889"
	defaultLocalAddr      = ":8889"
	defaultTelloVideoPort = 11111
)

// Config holds the network endpoints and cadence of a Tello connection.
type Config struct {
	DroneAddr string `yaml:"droneAddr"` // host:port of the drone's control channel
	LocalAddr string `yaml:"localAddr"` // local address the control socket binds to
	VideoHost string `yaml:"videoHost"` // local host the video socket binds to, empty for all
	VideoPort uint16 `yaml:"videoPort"` // announced to the drone by Connect

	StickInterval    time.Duration `yaml:"stickInterval"`    // stick heartbeat period
	KeyFrameInterval time.Duration `yaml:"keyFrameInterval"` // I-frame request period while video is on
	ReadTimeout      time.Duration `yaml:"readTimeout"`      // how long a poll waits for a datagram
	FrameTimeout     time.Duration `yaml:"frameTimeout"`     // bound on reassembling the rest of a frame

	StrictChecksums bool `yaml:"strictChecksums"` // drop inbound frames with bad CRCs
}

// DefaultConfig returns the settings for a drone in its default access-point mode.
func DefaultConfig() Config {
	return Config{
		DroneAddr:        defaultTelloAddr,
		LocalAddr:        defaultLocalAddr,
		VideoPort:        defaultTelloVideoPort,
		StickInterval:    33 * time.Millisecond,
		KeyFrameInterval: time.Second,
		ReadTimeout:      2 * time.Millisecond,
		FrameTimeout:     time.Second,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks for settings which would stop the engine working.
func (c Config) Validate() error {
	switch {
	case c.DroneAddr == "":
		return errors.New("droneAddr is required")
	case c.StickInterval <= 0:
		return errors.New("stickInterval must be positive")
	case c.KeyFrameInterval <= 0:
		return errors.New("keyFrameInterval must be positive")
	case c.ReadTimeout <= 0:
		return errors.New("readTimeout must be positive")
	case c.FrameTimeout <= 0:
		return errors.New("frameTimeout must be positive")
	}
	return nil
}
