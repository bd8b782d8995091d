// tello project meta_test.go

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

import "testing"

func TestDroneMetaEmpty(t *testing.T) {
	var m DroneMeta
	if _, ok := m.FlightData(); ok {
		t.Error("FlightData reported before any was received")
	}
	if _, ok := m.Version(); ok {
		t.Error("Version reported before any was received")
	}
	s := m.Snapshot()
	if s.FlightData != nil || s.Wifi != nil || !s.Updated.IsZero() {
		t.Errorf("Expected empty snapshot, got %+v", s)
	}
}

func TestDroneMetaKeepsLatest(t *testing.T) {
	var m DroneMeta
	m.Update(&FlightData{Height: 3})
	m.Update(&FlightData{Height: 5})
	m.Update(WifiInfo{Strength: 80, Disturb: 2})
	m.Update(LightInfo{Good: 1})
	m.Update(Version("01.04.92.01"))
	m.Update(AltLimit(30))
	m.Update(&LogMessage{ID: 7, Message: "log"})

	if fd, ok := m.FlightData(); !ok || fd.Height != 5 {
		t.Errorf("Expected height 5, got %+v", fd)
	}
	if w, ok := m.WifiInfo(); !ok || w.Strength != 80 {
		t.Errorf("Wifi: got %+v", w)
	}
	if l, ok := m.LightInfo(); !ok || l.Good != 1 {
		t.Errorf("Light: got %+v", l)
	}
	if v, ok := m.Version(); !ok || v != "01.04.92.01" {
		t.Errorf("Version: got %q", v)
	}
	if a, ok := m.AltLimit(); !ok || a != 30 {
		t.Errorf("AltLimit: got %d", a)
	}
	if lm, ok := m.LogHeader(); !ok || lm.ID != 7 {
		t.Errorf("LogHeader: got %+v", lm)
	}
}

func TestDroneMetaIgnoresUncategorised(t *testing.T) {
	var m DroneMeta
	m.Update(Unknown{1, 2})
	m.Update(NoData{})
	if !m.Snapshot().Updated.IsZero() {
		t.Error("Uncategorised payload changed the store")
	}
}

func TestDroneMetaSnapshotIsCopy(t *testing.T) {
	var m DroneMeta
	fd := &FlightData{BatteryPercentage: 50}
	m.Update(fd)
	fd.BatteryPercentage = 10

	s := m.Snapshot()
	if s.FlightData.BatteryPercentage != 50 {
		t.Error("Store shares memory with the decoded package")
	}
	s.FlightData.BatteryPercentage = 1
	if got, _ := m.FlightData(); got.BatteryPercentage != 50 {
		t.Error("Snapshot shares memory with the store")
	}
}
