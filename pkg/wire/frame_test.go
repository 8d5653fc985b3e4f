package wire

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEncodeHeaderLengths(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
		headerLen  int
	}{
		{"empty", 0, 1},
		{"one byte", 1, 1},
		{"largest 1-byte header", 63, 1},
		{"smallest 2-byte header", 64, 2},
		{"largest 2-byte header", 16383, 2},
		{"smallest 3-byte header", 16384, 3},
		{"largest 3-byte header", 4194303, 3},
		{"smallest 4-byte header", 4194304, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.payloadLen)
			frame, err := Encode(payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			if got := HeaderLen(frame[0]); got != tt.headerLen {
				t.Errorf("HeaderLen() = %d, want %d", got, tt.headerLen)
			}
			if len(frame) != tt.headerLen+tt.payloadLen {
				t.Errorf("frame length = %d, want %d", len(frame), tt.headerLen+tt.payloadLen)
			}
		})
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, MaxPayload+1)
	if _, err := Encode(payload); err != ErrPayloadTooLarge {
		t.Errorf("Encode() error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 63, 64, 100, 16383, 16384, 65536, 4194303, 4194304}

	for _, n := range lengths {
		payload := make([]byte, n)
		rand.Read(payload)

		frame, err := Encode(payload)
		if err != nil {
			t.Fatalf("Encode(%d bytes) error = %v", n, err)
		}

		r := NewReader()
		payloads := r.Feed(frame)
		if len(payloads) != 1 {
			t.Fatalf("Feed() yielded %d payloads, want 1", len(payloads))
		}
		if !bytes.Equal(payloads[0], payload) {
			t.Errorf("round-trip mismatch at length %d", n)
		}
		if r.Pending() != 0 {
			t.Errorf("Pending() = %d after complete frame, want 0", r.Pending())
		}
	}
}

func TestFeedChunkBoundaryIndependence(t *testing.T) {
	payload := make([]byte, 300)
	rand.Read(payload)

	frame, err := Encode(payload)
	if err != nil {
		t.Fatal(err)
	}

	// Split the frame at every possible position, including inside the
	// 2-byte header.
	for split := 1; split < len(frame); split++ {
		r := NewReader()

		if got := r.Feed(frame[:split]); len(got) != 0 {
			t.Fatalf("partial feed at split %d yielded %d payloads, want 0", split, len(got))
		}

		got := r.Feed(frame[split:])
		if len(got) != 1 || !bytes.Equal(got[0], payload) {
			t.Fatalf("split %d: payload not reassembled", split)
		}
	}
}

func TestFeedByteAtATime(t *testing.T) {
	payload := []byte("remote desktop session payload")
	frame, err := Encode(payload)
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader()
	var got [][]byte
	for i, b := range frame {
		out := r.Feed([]byte{b})
		if len(out) > 0 && i != len(frame)-1 {
			t.Fatalf("payload emitted before final byte (at byte %d)", i)
		}
		got = append(got, out...)
	}

	if len(got) != 1 || !bytes.Equal(got[0], payload) {
		t.Fatal("byte-at-a-time reassembly failed")
	}
}

func TestFeedMultipleFramesPerChunk(t *testing.T) {
	a := []byte("first")
	b := make([]byte, 5000)
	rand.Read(b)
	c := []byte{}

	var chunk []byte
	for _, p := range [][]byte{a, b, c} {
		frame, err := Encode(p)
		if err != nil {
			t.Fatal(err)
		}
		chunk = append(chunk, frame...)
	}

	r := NewReader()
	got := r.Feed(chunk)
	if len(got) != 3 {
		t.Fatalf("Feed() yielded %d payloads, want 3", len(got))
	}
	if !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) || !bytes.Equal(got[2], c) {
		t.Error("payload order or content mismatch")
	}
}

func TestFeedInterleavedPartialFrames(t *testing.T) {
	a := make([]byte, 200)
	b := make([]byte, 100)
	rand.Read(a)
	rand.Read(b)

	fa, _ := Encode(a)
	fb, _ := Encode(b)

	// First chunk: all of frame A plus a torn prefix of frame B.
	stream := append(append([]byte{}, fa...), fb...)
	r := NewReader()

	got := r.Feed(stream[:len(fa)+40])
	if len(got) != 1 || !bytes.Equal(got[0], a) {
		t.Fatal("first frame not emitted from torn chunk")
	}

	got = r.Feed(stream[len(fa)+40:])
	if len(got) != 1 || !bytes.Equal(got[0], b) {
		t.Fatal("second frame not completed")
	}
}

func TestLargePayloadAcrossArbitraryChunks(t *testing.T) {
	payload := make([]byte, 10*1024)
	rand.Read(payload)

	frame, err := Encode(payload)
	if err != nil {
		t.Fatal(err)
	}

	splits := []int{3, 1200, 1999, 4096, 5000, 9000}
	r := NewReader()

	var got [][]byte
	prev := 0
	for _, s := range splits {
		got = append(got, r.Feed(frame[prev:s])...)
		prev = s
	}
	got = append(got, r.Feed(frame[prev:])...)

	if len(got) != 1 {
		t.Fatalf("got %d payloads, want 1", len(got))
	}
	if !bytes.Equal(got[0], payload) {
		t.Error("reassembled payload differs from original")
	}
}

func TestReaderReset(t *testing.T) {
	r := NewReader()
	r.Feed([]byte{0xFF, 0x01})
	if r.Pending() == 0 {
		t.Fatal("expected pending bytes before reset")
	}

	r.Reset()
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after Reset, want 0", r.Pending())
	}
}
