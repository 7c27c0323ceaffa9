package audio

import (
	"bytes"
	"testing"
	"time"
)

// scriptedContext feeds fixed PCM blocks through the capture callback, like
// a sound card would.
type scriptedContext struct {
	blocks [][]byte
}

func (c *scriptedContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (c *scriptedContext) Close()                         {}

func (c *scriptedContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &scriptedCapture{blocks: c.blocks}, nil
}

type scriptedCapture struct {
	blocks  [][]byte
	cb      DataCallback
	stopped bool
	closed  bool
}

func (c *scriptedCapture) Start() error {
	for _, b := range c.blocks {
		if c.cb != nil {
			c.cb(b, uint32(len(b)/BytesPerFrame))
		}
	}
	return nil
}

func (c *scriptedCapture) Stop()                    { c.stopped = true }
func (c *scriptedCapture) Close()                   { c.closed = true }
func (c *scriptedCapture) SetCallback(cb DataCallback) { c.cb = cb }
func (c *scriptedCapture) ClearCallback()           { c.cb = nil }

func TestCaptureSourceRejectsStereo(t *testing.T) {
	_, err := NewCaptureSource(&scriptedContext{}, nil, CaptureConfig{Channels: 2})
	if err == nil {
		t.Fatal("stereo capture should be rejected")
	}
}

func TestCaptureSourceReadsCapturedBytes(t *testing.T) {
	ctx := &scriptedContext{blocks: [][]byte{{1, 2, 3, 4}, {5, 6}}}
	src, err := NewCaptureSource(ctx, nil, CaptureConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got []byte
	buf := make([]byte, 3)
	deadline := time.Now().Add(time.Second)
	for len(got) < 6 && time.Now().Before(deadline) {
		n, err := src.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("got %v, want 1..6", got)
	}

	// Exhausted: further reads return empty within the bounded wait.
	n, err := src.Read(buf)
	if err != nil || n != 0 {
		t.Errorf("Read after exhaustion = (%d, %v), want (0, nil)", n, err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.Closed() {
		t.Error("Closed should be true")
	}
	// Idempotent.
	if err := src.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestFakeSourceReplay(t *testing.T) {
	pcm := make([]byte, 10)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	src := NewFakeSource(pcm)
	src.SetEmptyReads(2)

	if err := src.Open(); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4)

	// Scripted idle reads come first.
	for i := 0; i < 2; i++ {
		if n, _ := src.Read(buf); n != 0 {
			t.Fatalf("read %d = %d bytes, want 0", i, n)
		}
	}

	var got []byte
	for !src.Exhausted() {
		n, err := src.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("got %v, want %v", got, pcm)
	}

	// After exhaustion the source acts like an idle microphone.
	if n, _ := src.Read(buf); n != 0 {
		t.Errorf("post-exhaustion read = %d, want 0", n)
	}

	src.Close()
	if !src.Closed() {
		t.Error("Closed should be true")
	}
}
