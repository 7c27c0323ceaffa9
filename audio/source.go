package audio

import (
	"fmt"
	"sync"
	"time"
)

const (
	// readWait bounds how long Read blocks waiting for capture data before
	// reporting an empty read.
	readWait = 50 * time.Millisecond

	captureQueueLen = 64
)

// CaptureSource adapts a callback-driven CaptureDevice into the pull-based
// Source used by the transcription loop. The capture callback enqueues PCM
// blocks; Read drains them. When the queue is full the oldest data wins and
// the new block is dropped, so a stalled consumer cannot back-pressure the
// audio thread.
type CaptureSource struct {
	ctx    Context
	device *DeviceInfo
	config CaptureConfig

	queue   chan []byte
	pending []byte

	mu      sync.Mutex
	capture CaptureDevice
	closed  bool
	dropped int
}

// NewCaptureSource validates the requested format against the canonical
// layout and prepares a source bound to the given device (nil means the
// system default).
func NewCaptureSource(ctx Context, device *DeviceInfo, config CaptureConfig) (*CaptureSource, error) {
	if config.SampleRate == 0 {
		config.SampleRate = SampleRate
	}
	if config.Channels == 0 {
		config.Channels = Channels
	}
	if config.Channels != Channels {
		return nil, fmt.Errorf("unsupported channel count %d: capture requires mono", config.Channels)
	}
	return &CaptureSource{
		ctx:    ctx,
		device: device,
		config: config,
		queue:  make(chan []byte, captureQueueLen),
	}, nil
}

func (s *CaptureSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("audio source is closed")
	}
	if s.capture != nil {
		return nil
	}

	capture, err := s.ctx.NewCapture(s.device, s.config)
	if err != nil {
		return fmt.Errorf("creating capture device: %w", err)
	}
	capture.SetCallback(func(data []byte, _ uint32) {
		block := make([]byte, len(data))
		copy(block, data)
		select {
		case s.queue <- block:
		default:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		}
	})
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return fmt.Errorf("starting capture: %w", err)
	}
	s.capture = capture
	return nil
}

// Read copies up to len(buf) captured bytes. It blocks for at most readWait
// and returns (0, nil) when no audio arrived in that window.
func (s *CaptureSource) Read(buf []byte) (int, error) {
	if len(s.pending) == 0 {
		select {
		case block, ok := <-s.queue:
			if !ok {
				return 0, nil
			}
			s.pending = block
		case <-time.After(readWait):
			return 0, nil
		}
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *CaptureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.capture != nil {
		s.capture.ClearCallback()
		s.capture.Stop()
		s.capture.Close()
		s.capture = nil
	}
	return nil
}

// Closed reports whether Close has completed.
func (s *CaptureSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Dropped returns the number of capture blocks discarded because the
// consumer fell behind.
func (s *CaptureSource) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
