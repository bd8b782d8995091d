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

package app

import (
	"log/slog"
	"os"
	"time"

	"github.com/SMerrony/tello/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings     `yaml:"settings"`
	Drone    tello.Config `yaml:"drone"`
	Relay    RelayConfig  `yaml:"relay"`
	Video    VideoConfig  `yaml:"video"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel    slog.Level    `yaml:"logLevel"`
	PollHz      int           `yaml:"pollHz"`      // engine polls per second
	StatusEvery time.Duration `yaml:"statusEvery"` // period of the flight summary log line
}

// RelayConfig represents the telemetry web server
type RelayConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

// VideoConfig represents the RTP video forwarder
type VideoConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dest      string `yaml:"dest"`
	QueueSize uint64 `yaml:"queueSize"`
	FrameRate uint32 `yaml:"frameRate"`
}

// DefaultConfig returns a configuration usable without a file.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:    slog.LevelInfo,
			PollHz:      200,
			StatusEvery: 5 * time.Second,
		},
		Drone: tello.DefaultConfig(),
		Relay: RelayConfig{
			Addr:     "127.0.0.1:8080",
			Interval: 200 * time.Millisecond,
		},
		Video: VideoConfig{
			Dest:      "127.0.0.1:5004",
			QueueSize: 64,
			FrameRate: 30,
		},
	}
}

// LoadConfig reads path over the defaults, an empty path gives the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading configuration")
		}
		if err = yaml.Unmarshal(b, c); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := c.Drone.Validate(); err != nil {
		return err
	}
	switch {
	case c.Settings.PollHz <= 0:
		return errors.New("settings.pollHz must be positive")
	case c.Settings.StatusEvery <= 0:
		return errors.New("settings.statusEvery must be positive")
	case c.Relay.Enabled && c.Relay.Addr == "":
		return errors.New("relay.addr is required when the relay is enabled")
	case c.Video.Enabled && c.Video.Dest == "":
		return errors.New("video.dest is required when video is enabled")
	}
	return nil
}

// PollPeriod is the time between engine polls.
func (c *Config) PollPeriod() time.Duration {
	return time.Second / time.Duration(c.Settings.PollHz)
}
