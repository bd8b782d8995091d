// meta.go

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
	"sync"
	"time"
)

// DroneMeta holds the latest decoded sample of each telemetry category.
// Nothing older than the latest sample is kept.
type DroneMeta struct {
	mu       sync.RWMutex
	flight   *FlightData
	wifi     *WifiInfo
	light    *LightInfo
	version  *Version
	altLimit *AltLimit
	logMsg   *LogMessage
	updated  time.Time
}

// MetaSnapshot is a point-in-time copy of DroneMeta, nil fields have not been received yet.
type MetaSnapshot struct {
	FlightData *FlightData `json:"flightData,omitempty"`
	Wifi       *WifiInfo   `json:"wifi,omitempty"`
	Light      *LightInfo  `json:"light,omitempty"`
	Version    *Version    `json:"version,omitempty"`
	AltLimit   *AltLimit   `json:"altLimit,omitempty"`
	LogHeader  *LogMessage `json:"logHeader,omitempty"`
	Updated    time.Time   `json:"updated"`
}

// Update stores the payload in its category, payloads without a category are ignored.
func (m *DroneMeta) Update(data PackageData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch d := data.(type) {
	case *FlightData:
		fd := *d
		m.flight = &fd
	case WifiInfo:
		m.wifi = &d
	case LightInfo:
		m.light = &d
	case Version:
		m.version = &d
	case AltLimit:
		m.altLimit = &d
	case *LogMessage:
		lm := *d
		m.logMsg = &lm
	default:
		return
	}
	m.updated = time.Now()
}

// FlightData returns the latest flight status, if any has been received.
func (m *DroneMeta) FlightData() (FlightData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.flight == nil {
		return FlightData{}, false
	}
	return *m.flight, true
}

// WifiInfo returns the latest Wi-Fi report.
func (m *DroneMeta) WifiInfo() (WifiInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.wifi == nil {
		return WifiInfo{}, false
	}
	return *m.wifi, true
}

// LightInfo returns the latest light report.
func (m *DroneMeta) LightInfo() (LightInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.light == nil {
		return LightInfo{}, false
	}
	return *m.light, true
}

// Version returns the firmware version.
func (m *DroneMeta) Version() (Version, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.version == nil {
		return "", false
	}
	return *m.version, true
}

// AltLimit returns the height limit reported by the drone.
func (m *DroneMeta) AltLimit() (AltLimit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.altLimit == nil {
		return 0, false
	}
	return *m.altLimit, true
}

// LogHeader returns the latest log header.
func (m *DroneMeta) LogHeader() (LogMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.logMsg == nil {
		return LogMessage{}, false
	}
	return *m.logMsg, true
}

// Snapshot copies every category at once.
func (m *DroneMeta) Snapshot() MetaSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := MetaSnapshot{Updated: m.updated}
	if m.flight != nil {
		fd := *m.flight
		s.FlightData = &fd
	}
	if m.wifi != nil {
		w := *m.wifi
		s.Wifi = &w
	}
	if m.light != nil {
		l := *m.light
		s.Light = &l
	}
	if m.version != nil {
		v := *m.version
		s.Version = &v
	}
	if m.altLimit != nil {
		a := *m.altLimit
		s.AltLimit = &a
	}
	if m.logMsg != nil {
		lm := *m.logMsg
		s.LogHeader = &lm
	}
	return s
}
