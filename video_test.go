// tello project video_test.go

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
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestFrameAssembly(t *testing.T) {
	fa := frameAssembler{vs: &VideoSettings{}}
	if !fa.begin([]byte{5, 0, 'A', 'A'}) {
		t.Fatal("First sub-packet rejected")
	}
	if done, err := fa.add([]byte{5, 1, 'B', 'B'}); done || err != nil {
		t.Fatalf("Frame ended early: %v, %v", done, err)
	}
	done, err := fa.add([]byte{5, lastSubPacket, 'C'})
	if !done || err != nil {
		t.Fatalf("Frame not complete at sub-packet %d: %v", lastSubPacket, err)
	}
	f := fa.frame()
	if f.ID != 5 || !bytes.Equal(f.Data, []byte("AABBC")) {
		t.Errorf("Expected frame 5 AABBC, got %d %q", f.ID, f.Data)
	}
}

func TestFrameMidStreamJoin(t *testing.T) {
	vs := &VideoSettings{}
	fa := frameAssembler{vs: vs}
	if fa.begin([]byte{5, 1, 'B', 'B'}) {
		t.Error("Accepted a frame starting at sub-packet 1")
	}
	if vs.LastFrameID != 5 {
		t.Errorf("Frame id not recorded, got %d", vs.LastFrameID)
	}
	if fa.begin([]byte{5}) {
		t.Error("Accepted a datagram without a header")
	}
}

func TestFrameDesync(t *testing.T) {
	fa := frameAssembler{vs: &VideoSettings{}}
	fa.begin([]byte{5, 0, 'A', 'A'})
	if _, err := fa.add([]byte{6, 1, 'X'}); !errors.Is(err, ErrVideoDesync) {
		t.Errorf("Expected ErrVideoDesync, got %v", err)
	}

	// the next frame starts cleanly
	if !fa.begin([]byte{6, 0, 'D'}) {
		t.Fatal("Next frame rejected")
	}
	fa.add([]byte{6, 200, 'E'})
	if f := fa.frame(); !bytes.Equal(f.Data, []byte("DE")) {
		t.Errorf("Partial frame leaked into the next, got %q", f.Data)
	}
}

func TestFrameIDOverflow(t *testing.T) {
	vs := &VideoSettings{LastFrameID: 250}
	fa := frameAssembler{vs: vs}
	fa.begin([]byte{3, 0, 'A'})
	if vs.FrameOverflow != 1 {
		t.Fatalf("Expected one overflow, got %d", vs.FrameOverflow)
	}
	fa.add([]byte{3, lastSubPacket})
	if f := fa.frame(); f.ID != 3+255 {
		t.Errorf("Expected frame id %d, got %d", 3+255, f.ID)
	}

	// ids of 100 and above going backwards are not a wrap
	vs.LastFrameID = 200
	fa.begin([]byte{150, 0})
	if vs.FrameOverflow != 1 {
		t.Errorf("Unexpected overflow, got %d", vs.FrameOverflow)
	}
}
