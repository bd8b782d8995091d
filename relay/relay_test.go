// tello project relay_test.go

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

package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SMerrony/tello/v2"
	"github.com/gorilla/websocket"
)

type fixedSource struct {
	snap tello.MetaSnapshot
}

func (f fixedSource) Snapshot() tello.MetaSnapshot { return f.snap }

func testSource() fixedSource {
	v := tello.Version("v01.04")
	return fixedSource{tello.MetaSnapshot{
		FlightData: &tello.FlightData{Height: 12, BatteryPercentage: 77},
		Version:    &v,
	}}
}

func TestMetaJSON(t *testing.T) {
	srv := httptest.NewServer(New(testSource()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/meta")
	if err != nil {
		t.Fatalf("GET failed with %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Unexpected content type %q", ct)
	}
	var snap tello.MetaSnapshot
	if err = json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if snap.FlightData == nil || snap.FlightData.BatteryPercentage != 77 {
		t.Errorf("Unexpected flight data %+v", snap.FlightData)
	}
	if snap.Version == nil || *snap.Version != "v01.04" {
		t.Errorf("Unexpected version %v", snap.Version)
	}
	if snap.Wifi != nil {
		t.Error("Wifi should be absent")
	}
}

func TestMetaMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(New(testSource()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/meta", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST failed with %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestMetaWebsocket(t *testing.T) {
	srv := httptest.NewServer(New(testSource(), WithInterval(10*time.Millisecond)).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/meta/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed with %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		var snap tello.MetaSnapshot
		if err = conn.ReadJSON(&snap); err != nil {
			t.Fatalf("Read %d failed with %v", i, err)
		}
		if snap.FlightData == nil || snap.FlightData.Height != 12 {
			t.Errorf("Read %d: unexpected flight data %+v", i, snap.FlightData)
		}
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(testSource()).Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
